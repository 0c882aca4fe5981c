package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/recipher/administrato-notify/internal/queue"
)

type fakeEnqueuer struct {
	messages []*queue.Message
	err      error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, msg *queue.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, msg)
	return "entry-1", nil
}

func TestPublishEventHandler_AcceptsTaggedEvent(t *testing.T) {
	enq := &fakeEnqueuer{}
	handler := PublishEventHandler(enq)

	body := `{"kind":"approval_batch_created","setId":"S1","userId":"u1","userData":{"id":"u1","email":"u1@example.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body: %s", rec.Code, rec.Body.String())
	}

	if len(enq.messages) != 1 {
		t.Fatalf("expected 1 enqueued message, got %d", len(enq.messages))
	}
	msg := enq.messages[0]
	if msg.Kind != "approval_batch_created" {
		t.Errorf("Kind = %q, want %q", msg.Kind, "approval_batch_created")
	}
	if string(msg.Payload) != body {
		t.Errorf("payload altered: got %s", msg.Payload)
	}

	var resp publishEventResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MessageID != msg.ID {
		t.Errorf("response message_id = %q, want %q", resp.MessageID, msg.ID)
	}
}

func TestPublishEventHandler_InfersLegacyKind(t *testing.T) {
	enq := &fakeEnqueuer{}
	handler := PublishEventHandler(enq)

	// No kind tag; documentId presence identifies the variant.
	body := `{"documentId":"D1","meta":{"user":{"id":"a1","name":"Admin"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if enq.messages[0].Kind != "document_downloaded" {
		t.Errorf("Kind = %q, want %q", enq.messages[0].Kind, "document_downloaded")
	}
}

func TestPublishEventHandler_RejectsMalformed(t *testing.T) {
	enq := &fakeEnqueuer{}
	handler := PublishEventHandler(enq)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"no identifiable fields", `{"foo":"bar"}`},
		{"unknown kind", `{"kind":"mystery","setId":"S1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(enq.messages) != 0 {
				t.Errorf("malformed event must not be enqueued")
			}
		})
	}
}

func TestPublishEventHandler_EnqueueFailure(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	handler := PublishEventHandler(enq)

	body := `{"kind":"schedule_set_generated","setId":"S2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
