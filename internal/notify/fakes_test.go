package notify

import (
	"context"
	"sync"

	"github.com/recipher/administrato-notify/internal/directory"
	"github.com/recipher/administrato-notify/internal/provider"
)

// fakeProvider records profile and send calls and fails on demand.
type fakeProvider struct {
	mu sync.Mutex

	profiles     map[string]provider.Profile
	profileCalls []string
	sendCalls    []*provider.Message

	profileErr error
	sendErr    error
	// sendErrOn fails Send only for messages whose first recipient matches.
	sendErrOn string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{profiles: make(map[string]provider.Profile)}
}

func (f *fakeProvider) ReplaceProfile(_ context.Context, recipientID string, p provider.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return f.profileErr
	}
	f.profileCalls = append(f.profileCalls, recipientID)
	f.profiles[recipientID] = p
	return nil
}

func (f *fakeProvider) Send(_ context.Context, msg *provider.Message) (*provider.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if f.sendErrOn != "" && len(msg.To) > 0 && msg.To[0].UserID == f.sendErrOn {
		return nil, provider.ClassifyHTTPError("fake", 503, "unavailable")
	}
	f.sendCalls = append(f.sendCalls, msg)
	return &provider.SendResult{RequestID: "req-1", Status: provider.StatusSent}, nil
}

func (f *fakeProvider) GetName() string                    { return "fake" }
func (f *fakeProvider) HealthCheck(_ context.Context) error { return nil }

func (f *fakeProvider) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sendCalls)
}

func (f *fakeProvider) profileCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.profileCalls)
}

// fakeDirectory serves canned approvers and periods keyed by set id.
type fakeDirectory struct {
	approvers map[string][]directory.Approver
	periods   map[string][]directory.Period
	err       error
}

func (f *fakeDirectory) ApproversForSet(_ context.Context, setID string) ([]directory.Approver, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.approvers[setID], nil
}

func (f *fakeDirectory) PeriodsForSet(_ context.Context, setID string) ([]directory.Period, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.periods[setID], nil
}

// fakeAccess records download audit calls.
type fakeAccess struct {
	mu      sync.Mutex
	records [][2]string
	err     error
}

func (f *fakeAccess) RecordDownload(_ context.Context, documentID, actor string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, [2]string{documentID, actor})
	return nil
}
