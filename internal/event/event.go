package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the notification event union.
type Kind string

const (
	KindApprovalBatchCreated Kind = "approval_batch_created"
	KindScheduleSetGenerated Kind = "schedule_set_generated"
	KindDocumentDownloaded   Kind = "document_downloaded"
)

// ErrMalformed marks an event payload that can never be processed.
// Redelivery cannot fix a parse failure, so consumers drop these after logging.
var ErrMalformed = errors.New("malformed event payload")

// Identity is the minimal contact profile needed to notify a user through
// the provider. A nil *Identity is a valid, expected state for an approver
// with no directory entry, not an error.
type Identity struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Resolvable reports whether the identity carries enough contact data to
// address a notification.
func (i *Identity) Resolvable() bool {
	return i != nil && i.Email != ""
}

// Actor identifies the user whose action produced the event.
type Actor struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Meta carries event context shared by every kind.
type Meta struct {
	User Actor `json:"user"`
}

// Event is one decoded notification event.
//
// Two envelope formats are supported for backward compatibility:
//   - Tagged: the "kind" field names the variant explicitly (current format).
//   - Untagged: legacy producers omit "kind"; the variant is inferred from
//     which fields are populated.
type Event struct {
	Kind       Kind      `json:"kind,omitempty"`
	SetID      string    `json:"setId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	UserData   *Identity `json:"userData,omitempty"`
	DocumentID string    `json:"documentId,omitempty"`
	Meta       Meta      `json:"meta"`
}

// Decode parses a queue message body into a typed event. The returned error
// wraps ErrMalformed when the payload is unparsable or names no known variant.
func Decode(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if ev.Kind == "" {
		ev.Kind = inferKind(&ev)
	}

	if err := ev.validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

// inferKind recovers the variant of a legacy untagged envelope from field
// presence. documentId wins over userId wins over setId, mirroring how the
// producers populate them.
func inferKind(ev *Event) Kind {
	switch {
	case ev.DocumentID != "":
		return KindDocumentDownloaded
	case ev.UserID != "":
		return KindApprovalBatchCreated
	case ev.SetID != "":
		return KindScheduleSetGenerated
	default:
		return ""
	}
}

// validate checks that the fields required by the event's kind are present.
func (e *Event) validate() error {
	switch e.Kind {
	case KindApprovalBatchCreated:
		if e.SetID == "" || e.UserID == "" {
			return fmt.Errorf("%w: approval_batch_created requires setId and userId", ErrMalformed)
		}
	case KindScheduleSetGenerated:
		if e.SetID == "" {
			return fmt.Errorf("%w: schedule_set_generated requires setId", ErrMalformed)
		}
	case KindDocumentDownloaded:
		if e.DocumentID == "" {
			return fmt.Errorf("%w: document_downloaded requires documentId", ErrMalformed)
		}
	default:
		return fmt.Errorf("%w: unknown event kind %q", ErrMalformed, e.Kind)
	}
	return nil
}
