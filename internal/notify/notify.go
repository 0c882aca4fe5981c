// Package notify drives the notification pipeline: it consumes decoded
// domain events, resolves recipients through the directory, syncs contact
// profiles to the provider, and dispatches composed messages.
package notify

import (
	"context"

	"github.com/recipher/administrato-notify/internal/directory"
)

// Delivery channels and routing method used by the fixed routing policies.
const (
	ChannelEmail = "email"
	ChannelInbox = "inbox"

	// RouteAll broadcasts to every listed channel rather than stopping at
	// the first success.
	RouteAll = "all"
)

// Directory resolves approvers and schedule periods for a set. It is the
// approvals/user lookup collaborator; failures are transient upstream errors.
type Directory interface {
	ApproversForSet(ctx context.Context, setID string) ([]directory.Approver, error)
	PeriodsForSet(ctx context.Context, setID string) ([]directory.Period, error)
}

// AccessRecorder records document download audit entries. It is the
// document-access collaborator.
type AccessRecorder interface {
	RecordDownload(ctx context.Context, documentID, actor string) error
}
