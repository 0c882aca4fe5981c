package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Stdout implements the Provider interface by writing calls to standard
// output. Intended for development and debugging; nothing is delivered.
type Stdout struct {
	writer io.Writer
}

// NewStdout creates a Stdout provider that prints to os.Stdout.
func NewStdout(_ Config) *Stdout {
	return &Stdout{writer: os.Stdout}
}

func (s *Stdout) GetName() string { return "stdout" }

// ReplaceProfile prints the profile upsert and succeeds.
func (s *Stdout) ReplaceProfile(_ context.Context, recipientID string, profile Profile) error {
	_, err := fmt.Fprintf(s.writer, "--- stdout provider: profile %s -> %s <%s> ---\n",
		recipientID, profile.Name, profile.Email)
	if err != nil {
		return fmt.Errorf("stdout: write: %w", err)
	}
	return nil
}

// Send prints the composed message and returns a successful result.
func (s *Stdout) Send(_ context.Context, msg *Message) (*SendResult, error) {
	var b strings.Builder
	b.WriteString("--- stdout provider: message ---\n")
	fmt.Fprintf(&b, "ID:       %s\n", msg.ID)
	for _, rcpt := range msg.To {
		fmt.Fprintf(&b, "To:       %s (channel %q)\n", rcpt.UserID, rcpt.ChannelID)
	}
	for _, el := range msg.Elements {
		switch el.Type {
		case "meta":
			fmt.Fprintf(&b, "Title:    %s\n", el.Title)
		default:
			fmt.Fprintf(&b, "Block:    %s (loop %q)\n", el.Content, el.Loop)
		}
	}
	fmt.Fprintf(&b, "Routing:  %s via %s\n", msg.Routing.Method, strings.Join(msg.Routing.Channels, ", "))
	b.WriteString("--- end ---\n")

	if _, err := io.WriteString(s.writer, b.String()); err != nil {
		return nil, fmt.Errorf("stdout: write: %w", err)
	}

	return &SendResult{
		RequestID: "stdout-" + msg.ID,
		Status:    StatusSent,
		Timestamp: time.Now(),
	}, nil
}

// HealthCheck always returns nil since stdout is always available.
func (s *Stdout) HealthCheck(_ context.Context) error {
	return nil
}
