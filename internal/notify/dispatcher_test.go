package notify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/recipher/administrato-notify/internal/provider"
)

func TestDispatcher_SingleCallMapsAllRecipients(t *testing.T) {
	fake := newFakeProvider()
	d := NewDispatcher(fake, zerolog.Nop())

	msg := &provider.Message{
		To: []provider.Recipient{
			{UserID: "u1"},
			{UserID: "u2"},
		},
		Routing: provider.Routing{Method: RouteAll, Channels: []string{ChannelEmail, ChannelInbox}},
	}

	results, err := d.Dispatch(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fake.sentCount() != 1 {
		t.Fatalf("expected exactly one provider call, got %d", fake.sentCount())
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Outcome != OutcomeSent {
			t.Errorf("recipient %s: expected outcome %s, got %s", r.RecipientID, OutcomeSent, r.Outcome)
		}
		if r.RequestID != "req-1" {
			t.Errorf("recipient %s: expected request id req-1, got %q", r.RecipientID, r.RequestID)
		}
	}
}

func TestDispatcher_CallFailureFailsWholeMessage(t *testing.T) {
	fake := newFakeProvider()
	fake.sendErr = provider.ClassifyHTTPError("fake", 503, "unavailable")
	d := NewDispatcher(fake, zerolog.Nop())

	msg := &provider.Message{
		To: []provider.Recipient{{UserID: "u1"}, {UserID: "u2"}, {UserID: "u3"}},
	}

	results, err := d.Dispatch(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Outcome != OutcomeFailed {
			t.Errorf("recipient %s: expected outcome %s, got %s", r.RecipientID, OutcomeFailed, r.Outcome)
		}
	}
}
