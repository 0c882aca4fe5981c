package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/recipher/administrato-notify/internal/provider"
)

// Outcome is the per-recipient result of a dispatch attempt. Results exist
// for observability only; nothing persists them.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped-no-identity"
	OutcomeFailed  Outcome = "failed"
)

// DispatchResult is one recipient's outcome for one composed message.
type DispatchResult struct {
	RecipientID string
	Outcome     Outcome
	RequestID   string
}

// Dispatcher sends composed messages through the provider. One provider call
// covers every recipient of a message; the provider substitutes each
// recipient's template data server-side. Recipient sets are small (bounded
// by one approval set's approver count), so a call failure failing every
// recipient of that message is accepted.
type Dispatcher struct {
	provider provider.Provider
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher backed by the given provider.
func NewDispatcher(p provider.Provider, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{provider: p, log: log}
}

// Dispatch sends the message and maps the call outcome onto every recipient.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *provider.Message) ([]DispatchResult, error) {
	results := make([]DispatchResult, len(msg.To))
	for i, rcpt := range msg.To {
		results[i] = DispatchResult{RecipientID: rcpt.UserID}
	}

	sent, err := d.provider.Send(ctx, msg)
	if err != nil {
		for i := range results {
			results[i].Outcome = OutcomeFailed
		}
		d.log.Error().Err(err).
			Str("message_id", msg.ID).
			Int("recipients", len(msg.To)).
			Msg("provider send failed")
		return results, fmt.Errorf("send message: %w", err)
	}

	for i := range results {
		results[i].Outcome = OutcomeSent
		results[i].RequestID = sent.RequestID
	}

	d.log.Info().
		Str("message_id", msg.ID).
		Str("request_id", sent.RequestID).
		Int("recipients", len(msg.To)).
		Strs("channels", msg.Routing.Channels).
		Msg("message dispatched")

	return results, nil
}
