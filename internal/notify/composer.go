package notify

import (
	"fmt"

	"github.com/recipher/administrato-notify/internal/directory"
	"github.com/recipher/administrato-notify/internal/event"
	"github.com/recipher/administrato-notify/internal/provider"
)

// Routing policy is fixed per event kind. Method is always broadcast-to-all;
// only the channel order differs between kinds.
var (
	routingBatchCreated = provider.Routing{
		Method:   RouteAll,
		Channels: []string{ChannelInbox, ChannelEmail},
	}
	routingSetGenerated = provider.Routing{
		Method:   RouteAll,
		Channels: []string{ChannelEmail, ChannelInbox},
	}
)

// ComposeBatchCreated builds the single-recipient message announcing a new
// approval batch. The named schedule periods render as a repeated content
// block bound to the recipient's "schedules" template array.
func ComposeBatchCreated(ev *event.Event, identity event.Identity, periods []directory.Period) *provider.Message {
	schedules := make([]map[string]any, len(periods))
	for i, p := range periods {
		schedules[i] = map[string]any{"name": p.Name, "year": p.Year}
	}

	return &provider.Message{
		To: []provider.Recipient{{
			UserID:    identity.ID,
			ChannelID: identity.ID,
			Data: map[string]any{
				"name":      identity.Name,
				"schedules": schedules,
			},
		}},
		Elements: []provider.Element{
			{Type: "meta", Title: "Approvals requested"},
			{Type: "text", Content: "Hi {{name}}, your approval has been requested for the following schedule periods:"},
			{Type: "text", Content: "{{name}} {{year}}", Loop: "data.schedules"},
		},
		Routing: routingBatchCreated,
	}
}

// ComposeSetGenerated builds the multi-recipient message announcing that a
// schedule set has been generated. Every recipient contributes one to entry
// carrying its own template data; recipient order is preserved.
func ComposeSetGenerated(ev *event.Event, recipients []event.Identity) *provider.Message {
	tos := make([]provider.Recipient, len(recipients))
	for i, r := range recipients {
		tos[i] = provider.Recipient{
			UserID:    r.ID,
			ChannelID: r.ID,
			Data:      map[string]any{"name": r.Name},
		}
	}

	body := fmt.Sprintf("Hi {{name}}, schedules for set %s are ready for your approval.", ev.SetID)
	if actor := ev.Meta.User.Name; actor != "" {
		body = fmt.Sprintf("Hi {{name}}, schedules for set %s generated by %s are ready for your approval.", ev.SetID, actor)
	}

	return &provider.Message{
		To: tos,
		Elements: []provider.Element{
			{Type: "meta", Title: "Schedules generated"},
			{Type: "text", Content: body},
		},
		Routing: routingSetGenerated,
	}
}
