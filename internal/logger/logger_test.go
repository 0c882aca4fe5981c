package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewFromConfig_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewFromConfig(LoggingConfig{Level: "info"}).Output(&buf)

	log.Info().Str("set_id", "set-1").Msg("event processed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "event processed" {
		t.Errorf("expected message 'event processed', got %v", entry["message"])
	}
	if entry["set_id"] != "set-1" {
		t.Errorf("expected set_id field, got %v", entry["set_id"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected a time field")
	}
}

func TestNewFromConfig_LevelFiltering(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		logAt   string
		written bool
	}{
		{"info passes info", "info", "info", true},
		{"info passes warn", "info", "warn", true},
		{"info filters debug", "info", "debug", false},
		{"debug passes debug", "debug", "debug", true},
		{"warn filters info", "warn", "info", false},
		{"error filters warn", "error", "warn", false},
		{"unknown level behaves as info", "loud", "debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewFromConfig(LoggingConfig{Level: tt.level}).Output(&buf)

			switch tt.logAt {
			case "debug":
				log.Debug().Msg("m")
			case "info":
				log.Info().Msg("m")
			case "warn":
				log.Warn().Msg("m")
			}

			if written := buf.Len() > 0; written != tt.written {
				t.Errorf("level %q logging at %q: written=%v, want %v (%s)",
					tt.level, tt.logAt, written, tt.written, buf.String())
			}
		})
	}
}

func TestCorrelationID_ContextRoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "evt-publish-42")

	if got := CorrelationIDFromContext(ctx); got != "evt-publish-42" {
		t.Errorf("expected correlation ID evt-publish-42, got %q", got)
	}
	if got := CorrelationIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty ID from bare context, got %q", got)
	}
}

func TestFromContext_AttachesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := NewFromConfig(LoggingConfig{Level: "info"}).Output(&buf)

	ctx := WithLogger(context.Background(), base)
	ctx = WithCorrelationID(ctx, "evt-publish-42")

	ctxLog := FromContext(ctx)
	ctxLog.Info().Msg("status summarized")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["correlation_id"] != "evt-publish-42" {
		t.Errorf("expected correlation_id evt-publish-42, got %v", entry["correlation_id"])
	}
}

func TestFromContext_FallbackLogger(t *testing.T) {
	// A bare context still yields a usable logger.
	log := FromContext(context.Background())

	var buf bytes.Buffer
	outLog := log.Output(&buf)
	outLog.Info().Msg("fallback")

	if buf.Len() == 0 {
		t.Error("expected the fallback logger to write")
	}
}

func TestNewCorrelationID_Unique(t *testing.T) {
	a, b := NewCorrelationID(), NewCorrelationID()

	if a == "" || a == b {
		t.Errorf("expected two distinct non-empty IDs, got %q and %q", a, b)
	}
	if parts := strings.Split(a, "-"); len(parts) != 5 {
		t.Errorf("expected UUID shape, got %q", a)
	}
}
