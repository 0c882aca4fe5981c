package provider

import (
	"context"
	"time"
)

// Provider defines the interface for the notification delivery service.
// A single Send call fans one composed message out to every recipient and
// channel named by its routing policy; the provider performs per-recipient
// template substitution server-side.
type Provider interface {
	// ReplaceProfile upserts the contact profile stored for a recipient.
	// It fully replaces any previous profile, which makes repeated calls
	// with identical data a no-op from the caller's perspective.
	ReplaceProfile(ctx context.Context, recipientID string, profile Profile) error
	// Send delivers a composed message and returns the provider's receipt.
	Send(ctx context.Context, msg *Message) (*SendResult, error)
	// GetName returns the provider's identifier (e.g., "courier", "stdout").
	GetName() string
	// HealthCheck verifies the provider is reachable and credentials work.
	HealthCheck(ctx context.Context) error
}

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
}

// HTTPRequest represents an outgoing HTTP request.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse represents an HTTP response from a provider API.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Profile is the contact data stored at the provider for one recipient.
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Message is a channel-agnostic composed notification: an ordered list of
// content blocks, the recipients it addresses, and its routing policy.
type Message struct {
	// ID correlates the send with the originating queue message. Not sent
	// to the provider; used for logging only.
	ID string

	To       []Recipient
	Elements []Element
	Version  string
	Routing  Routing
}

// Recipient is one `to` entry of a composed message.
type Recipient struct {
	// UserID is the recipient's external id at the provider.
	UserID string
	// ChannelID binds the recipient to a named in-app channel. Empty when
	// the message routes only through contact-profile channels.
	ChannelID string
	// Data is the per-recipient template substitution data.
	Data map[string]any
}

// Element is one ordered content block of a composed message.
type Element struct {
	// Type is "meta" (subject/title) or "text" (templated body block).
	Type string
	// Title is set for meta elements.
	Title string
	// Content is set for text elements; may carry {{name}}-style placeholders.
	Content string
	// Loop, when set, repeats the block once per entry of the named
	// per-recipient data array (e.g., "data.schedules").
	Loop string
}

// Routing names the channels a message fans out to. Method "all" broadcasts
// to every listed channel rather than stopping at the first success.
type Routing struct {
	Method   string   `json:"method"`
	Channels []string `json:"channels"`
}

// SendResult contains the outcome of a successful Send call.
type SendResult struct {
	// RequestID is the provider's receipt for the accepted send.
	RequestID string
	Status    DeliveryStatus
	Timestamp time.Time
}

// DeliveryStatus represents the outcome of a provider delivery.
type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)
