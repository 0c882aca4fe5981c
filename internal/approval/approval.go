package approval

import "fmt"

// Status is the lifecycle state of a single approval record. Approvals are
// created as draft and only ever transition draft -> approved.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
)

// Approval is one approver's sign-off record for a schedule set.
type Approval struct {
	ID     string
	SetID  string
	UserID string
	Status Status
}

// Severity classifies the urgency of an approval summary for display.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// Summary is the aggregated approval state for one schedule set as seen by
// a particular viewer.
type Summary struct {
	ApprovedCount int
	TotalCount    int
	Severity      Severity
	Label         string
}

// Summarize aggregates a set's approval records into a viewer-facing summary.
// It is a pure function: defined for every input, including an empty list.
//
// Precedence is error > warning > info: an empty set is always an error, even
// though the viewer trivially has no pending approvals in it.
func Summarize(approvals []Approval, viewer string) Summary {
	approved := 0
	pendingForViewer := 0

	for _, a := range approvals {
		if a.Status == StatusApproved {
			approved++
		}
		if a.UserID == viewer && a.Status == StatusDraft {
			pendingForViewer++
		}
	}

	total := len(approvals)

	switch {
	case total == 0:
		return Summary{
			Severity: SeverityError,
			Label:    "no configured approvals",
		}
	case pendingForViewer == 0:
		return Summary{
			ApprovedCount: approved,
			TotalCount:    total,
			Severity:      SeverityWarning,
			Label:         "you have no pending approvals",
		}
	default:
		return Summary{
			ApprovedCount: approved,
			TotalCount:    total,
			Severity:      SeverityInfo,
			Label:         fmt.Sprintf("%d/%d", approved, total),
		}
	}
}
