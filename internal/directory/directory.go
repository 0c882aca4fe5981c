// Package directory reads the admin application's approval, user, and
// schedule tables. The notification pipeline treats it as an external
// collaborator: lookups here are remote calls that can fail transiently.
package directory

import (
	"github.com/recipher/administrato-notify/internal/event"
)

// Approver is one approval record joined with the approver's directory
// identity. Identity is nil when the user has no resolvable contact data,
// which is an expected state, not an error.
type Approver struct {
	UserID   string
	Identity *event.Identity
}

// Period is one named schedule period of a generated set.
type Period struct {
	Name string `json:"name"`
	Year int    `json:"year"`
}
