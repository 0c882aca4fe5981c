package api

import (
	"encoding/json"
	"net/http"

	"github.com/recipher/administrato-notify/internal/auth"
	"github.com/recipher/administrato-notify/internal/logger"
	"github.com/recipher/administrato-notify/internal/queue"
)

// dlqReprocessRequest is the JSON body for POST /api/v1/dlq/reprocess.
type dlqReprocessRequest struct {
	MessageIDs []string `json:"message_ids"`
}

// dlqReprocessResponse is the JSON response for a DLQ reprocess operation.
type dlqReprocessResponse struct {
	Reprocessed int `json:"reprocessed"`
	Total       int `json:"total"`
}

// DLQReprocessHandler handles POST /api/v1/dlq/reprocess.
// It re-enqueues messages from the dead letter queue back to the primary queue.
func DLQReprocessHandler(dlq queue.DeadLetterQueue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		member := auth.MemberFromContext(r.Context())
		if member == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req dlqReprocessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if len(req.MessageIDs) == 0 {
			writeError(w, http.StatusBadRequest, "message_ids is required and must not be empty")
			return
		}

		reprocessed, err := dlq.Reprocess(r.Context(), req.MessageIDs)
		if err != nil {
			log.Error().Err(err).
				Str("member", member).
				Int("requested", len(req.MessageIDs)).
				Int("reprocessed", reprocessed).
				Msg("dlq reprocess failed")
			writeError(w, http.StatusInternalServerError, "reprocess failed")
			return
		}

		log.Info().
			Str("member", member).
			Int("reprocessed", reprocessed).
			Int("total", len(req.MessageIDs)).
			Msg("dlq reprocess completed")

		writeJSON(w, http.StatusOK, dlqReprocessResponse{
			Reprocessed: reprocessed,
			Total:       len(req.MessageIDs),
		})
	}
}
