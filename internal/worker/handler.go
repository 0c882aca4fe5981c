package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/recipher/administrato-notify/internal/event"
	"github.com/recipher/administrato-notify/internal/notify"
	"github.com/recipher/administrato-notify/internal/provider"
	"github.com/recipher/administrato-notify/internal/queue"
)

// batchProcessor runs the notification pipeline over a batch of decoded
// events, returning one result per event in batch order.
type batchProcessor interface {
	Consume(ctx context.Context, batch []*event.Event) []notify.EventResult
}

// Handler implements queue.MessageHandler. It decodes the event payloads of
// a delivery batch and hands the decodable ones to the notification
// pipeline in one Consume call.
type Handler struct {
	processor batchProcessor
	log       zerolog.Logger
}

// NewHandler creates a Handler that processes queued scheduling events.
func NewHandler(processor batchProcessor, log zerolog.Logger) *Handler {
	return &Handler{
		processor: processor,
		log:       log,
	}
}

// HandleBatch implements queue.MessageHandler. Malformed payloads are
// dropped with a log line (a nil error, so the queue acks them) rather than
// retried, since redelivery cannot fix them; the rest of the batch still
// runs. Permanent processing failures are wrapped with queue.ErrPermanent
// so the dequeuer parks them in the DLQ without burning the retry schedule.
func (h *Handler) HandleBatch(ctx context.Context, msgs []*queue.Message) []error {
	errs := make([]error, len(msgs))

	events := make([]*event.Event, 0, len(msgs))
	sources := make([]int, 0, len(msgs))

	for i, msg := range msgs {
		ev, err := event.Decode(msg.Payload)
		if err != nil {
			if errors.Is(err, event.ErrMalformed) {
				h.log.Warn().Err(err).
					Str("message_id", msg.ID).
					Str("kind", msg.Kind).
					Msg("dropping malformed event")
				continue
			}
			errs[i] = fmt.Errorf("decode event: %w", err)
			continue
		}
		events = append(events, ev)
		sources = append(sources, i)
	}
	if len(events) == 0 {
		return errs
	}

	start := time.Now()
	results := h.processor.Consume(ctx, events)
	duration := time.Since(start)

	processed := 0
	for j, res := range results {
		i := sources[j]
		if res.Err != nil {
			if provider.IsPermanent(res.Err) {
				errs[i] = fmt.Errorf("process %s event: %w: %w", res.Kind, res.Err, queue.ErrPermanent)
			} else {
				errs[i] = fmt.Errorf("process %s event: %w", res.Kind, res.Err)
			}
			continue
		}

		processed++
		h.log.Debug().
			Str("message_id", msgs[i].ID).
			Str("kind", string(res.Kind)).
			Msg("event processed")
	}

	h.log.Info().
		Int("batch_size", len(msgs)).
		Int("processed", processed).
		Int("dropped", len(msgs)-len(events)).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("event batch handled")

	return errs
}
