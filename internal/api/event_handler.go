package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/recipher/administrato-notify/internal/event"
	"github.com/recipher/administrato-notify/internal/logger"
	"github.com/recipher/administrato-notify/internal/queue"
)

// maxEventBytes caps the accepted event payload size.
const maxEventBytes = 64 * 1024

// publishEventResponse is the JSON response for an accepted event.
type publishEventResponse struct {
	MessageID string `json:"message_id"`
	Kind      string `json:"kind"`
}

// PublishEventHandler handles POST /api/v1/events. The request body is a
// scheduling event in the wire format the worker consumes. The event is
// validated before enqueueing so producers get an immediate 400 for
// payloads the worker would drop.
func PublishEventHandler(enqueuer queue.Enqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		if len(body) > maxEventBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "event payload too large")
			return
		}

		ev, err := event.Decode(body)
		if err != nil {
			if errors.Is(err, event.ErrMalformed) {
				writeError(w, http.StatusBadRequest, "malformed event payload")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid event")
			return
		}

		msg := queue.NewMessage(string(ev.Kind), body)
		entryID, err := enqueuer.Enqueue(r.Context(), msg)
		if err != nil {
			log.Error().Err(err).
				Str("kind", string(ev.Kind)).
				Msg("failed to enqueue event")
			writeError(w, http.StatusInternalServerError, "failed to enqueue event")
			return
		}

		log.Info().
			Str("message_id", msg.ID).
			Str("entry_id", entryID).
			Str("kind", string(ev.Kind)).
			Str("set_id", ev.SetID).
			Msg("event accepted")

		writeJSON(w, http.StatusAccepted, publishEventResponse{
			MessageID: msg.ID,
			Kind:      string(ev.Kind),
		})
	}
}
