package notify

import (
	"strings"
	"testing"

	"github.com/recipher/administrato-notify/internal/directory"
	"github.com/recipher/administrato-notify/internal/event"
)

func TestComposeBatchCreated(t *testing.T) {
	ev := &event.Event{
		Kind:   event.KindApprovalBatchCreated,
		SetID:  "S1",
		UserID: "u1",
		Meta:   event.Meta{User: event.Actor{Name: "Admin"}},
	}
	identity := event.Identity{ID: "u1", Name: "Ann", Email: "ann@example.com"}
	periods := []directory.Period{
		{Name: "January", Year: 2026},
		{Name: "February", Year: 2026},
	}

	msg := ComposeBatchCreated(ev, identity, periods)

	if len(msg.To) != 1 {
		t.Fatalf("expected single recipient, got %d", len(msg.To))
	}
	to := msg.To[0]
	if to.UserID != "u1" || to.ChannelID != "u1" {
		t.Errorf("expected channel binding keyed by recipient id, got %+v", to)
	}
	if to.Data["name"] != "Ann" {
		t.Errorf("expected name template data, got %v", to.Data["name"])
	}
	schedules, ok := to.Data["schedules"].([]map[string]any)
	if !ok {
		t.Fatalf("expected schedules array, got %T", to.Data["schedules"])
	}
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedule entries, got %d", len(schedules))
	}
	if schedules[0]["name"] != "January" || schedules[0]["year"] != 2026 {
		t.Errorf("unexpected first schedule entry %v", schedules[0])
	}

	// meta first, then text, then the repeating schedules block.
	if len(msg.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(msg.Elements))
	}
	if msg.Elements[0].Type != "meta" || msg.Elements[0].Title == "" {
		t.Errorf("expected leading meta element, got %+v", msg.Elements[0])
	}
	if msg.Elements[2].Loop != "data.schedules" {
		t.Errorf("expected loop bound to data.schedules, got %q", msg.Elements[2].Loop)
	}

	if msg.Routing.Method != RouteAll {
		t.Errorf("expected routing method all, got %s", msg.Routing.Method)
	}
	wantChannels := []string{ChannelInbox, ChannelEmail}
	for i, ch := range wantChannels {
		if msg.Routing.Channels[i] != ch {
			t.Errorf("expected channel %d to be %s, got %s", i, ch, msg.Routing.Channels[i])
		}
	}
}

func TestComposeSetGenerated(t *testing.T) {
	ev := &event.Event{
		Kind:  event.KindScheduleSetGenerated,
		SetID: "S1",
		Meta:  event.Meta{User: event.Actor{Name: "Admin"}},
	}
	recipients := []event.Identity{
		{ID: "u1", Name: "Ann", Email: "ann@example.com"},
		{ID: "u2", Name: "Ben", Email: "ben@example.com"},
	}

	msg := ComposeSetGenerated(ev, recipients)

	if len(msg.To) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(msg.To))
	}
	// Order preserved.
	if msg.To[0].UserID != "u1" || msg.To[1].UserID != "u2" {
		t.Errorf("recipient order not preserved: %+v", msg.To)
	}
	if msg.To[1].Data["name"] != "Ben" {
		t.Errorf("expected per-recipient template data, got %v", msg.To[1].Data)
	}

	if msg.Elements[0].Type != "meta" {
		t.Errorf("expected leading meta element, got %+v", msg.Elements[0])
	}

	wantChannels := []string{ChannelEmail, ChannelInbox}
	for i, ch := range wantChannels {
		if msg.Routing.Channels[i] != ch {
			t.Errorf("expected channel %d to be %s, got %s", i, ch, msg.Routing.Channels[i])
		}
	}
}

func TestComposeSetGenerated_ActorInBody(t *testing.T) {
	ev := &event.Event{
		Kind:  event.KindScheduleSetGenerated,
		SetID: "S1",
		Meta:  event.Meta{User: event.Actor{Name: "Admin"}},
	}

	msg := ComposeSetGenerated(ev, []event.Identity{{ID: "u1", Name: "Ann", Email: "a@example.com"}})

	var body string
	for _, el := range msg.Elements {
		if el.Type == "text" {
			body = el.Content
		}
	}
	if body == "" {
		t.Fatal("expected a text element")
	}
	if want := "generated by Admin"; !strings.Contains(body, want) {
		t.Errorf("expected body to mention actor, got %q", body)
	}
	if !strings.Contains(body, "{{name}}") {
		t.Errorf("expected per-recipient name placeholder, got %q", body)
	}
}
