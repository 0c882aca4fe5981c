package event

import (
	"errors"
	"testing"
)

func TestDecode_Tagged(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind Kind
	}{
		{
			name:     "approval batch created",
			payload:  `{"kind":"approval_batch_created","setId":"S1","userId":"u1","userData":{"email":"a@example.com","name":"Ann"},"meta":{"user":{"name":"Admin"}}}`,
			wantKind: KindApprovalBatchCreated,
		},
		{
			name:     "schedule set generated",
			payload:  `{"kind":"schedule_set_generated","setId":"S1","meta":{"user":{"name":"Admin"}}}`,
			wantKind: KindScheduleSetGenerated,
		},
		{
			name:     "document downloaded",
			payload:  `{"kind":"document_downloaded","documentId":"D1","meta":{"user":{"name":"Admin"}}}`,
			wantKind: KindDocumentDownloaded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ev.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, ev.Kind)
			}
		})
	}
}

func TestDecode_UntaggedInference(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind Kind
	}{
		{
			name:     "userId implies approval batch created",
			payload:  `{"setId":"S1","userId":"u1","userData":null,"meta":{"user":{"name":"Admin"}}}`,
			wantKind: KindApprovalBatchCreated,
		},
		{
			name:     "setId alone implies schedule set generated",
			payload:  `{"setId":"S1","meta":{"user":{"name":"Admin"}}}`,
			wantKind: KindScheduleSetGenerated,
		},
		{
			name:     "documentId implies document downloaded",
			payload:  `{"documentId":"D1","meta":{"user":{"name":"Admin"}}}`,
			wantKind: KindDocumentDownloaded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ev.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, ev.Kind)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "invalid json", payload: `{not json`},
		{name: "empty object", payload: `{}`},
		{name: "unknown kind", payload: `{"kind":"coffee_brewed","setId":"S1"}`},
		{name: "tagged but missing setId", payload: `{"kind":"approval_batch_created","userId":"u1"}`},
		{name: "tagged but missing documentId", payload: `{"kind":"document_downloaded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestDecode_NullUserData(t *testing.T) {
	payload := `{"kind":"approval_batch_created","setId":"S1","userId":"u1","userData":null,"meta":{"user":{"name":"Admin"}}}`

	ev, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.UserData != nil {
		t.Errorf("expected nil userData, got %+v", ev.UserData)
	}
	if ev.UserData.Resolvable() {
		t.Error("nil identity must not be resolvable")
	}
}

func TestIdentity_Resolvable(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		want     bool
	}{
		{name: "nil", identity: nil, want: false},
		{name: "no email", identity: &Identity{Name: "Ann"}, want: false},
		{name: "complete", identity: &Identity{Name: "Ann", Email: "a@example.com"}, want: true},
		{name: "email only", identity: &Identity{Email: "a@example.com"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.Resolvable(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
