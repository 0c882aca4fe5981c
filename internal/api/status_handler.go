package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recipher/administrato-notify/internal/approval"
	"github.com/recipher/administrato-notify/internal/auth"
	"github.com/recipher/administrato-notify/internal/logger"
)

// approvalDirectory is the slice of directory.Store the status endpoint needs.
type approvalDirectory interface {
	SetExists(ctx context.Context, setID string) (bool, error)
	ApprovalsForSet(ctx context.Context, setID string) ([]approval.Approval, error)
}

// setStatusResponse is the JSON response for a schedule set's approval status.
type setStatusResponse struct {
	SetID    string `json:"set_id"`
	Viewer   string `json:"viewer"`
	Approved int    `json:"approved"`
	Total    int    `json:"total"`
	Severity string `json:"severity"`
	Label    string `json:"label"`
}

// SetStatusHandler handles GET /api/v1/sets/{setID}/status. The viewer is
// the authenticated member, so two members can see different severities for
// the same set.
func SetStatusHandler(dir approvalDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		setID := chi.URLParam(r, "setID")
		if setID == "" {
			writeError(w, http.StatusBadRequest, "set ID is required")
			return
		}

		viewer := auth.MemberFromContext(r.Context())
		if viewer == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		exists, err := dir.SetExists(r.Context(), setID)
		if err != nil {
			log.Error().Err(err).Str("set_id", setID).Msg("set lookup failed")
			writeError(w, http.StatusInternalServerError, "status lookup failed")
			return
		}
		if !exists {
			writeError(w, http.StatusNotFound, "schedule set not found")
			return
		}

		approvals, err := dir.ApprovalsForSet(r.Context(), setID)
		if err != nil {
			log.Error().Err(err).Str("set_id", setID).Msg("approvals lookup failed")
			writeError(w, http.StatusInternalServerError, "status lookup failed")
			return
		}

		summary := approval.Summarize(approvals, viewer)

		writeJSON(w, http.StatusOK, setStatusResponse{
			SetID:    setID,
			Viewer:   viewer,
			Approved: summary.ApprovedCount,
			Total:    summary.TotalCount,
			Severity: string(summary.Severity),
			Label:    summary.Label,
		})
	}
}
