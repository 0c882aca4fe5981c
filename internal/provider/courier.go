package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const (
	courierDefaultEndpoint = "https://api.courier.com"
	courierSendPath        = "/send"
	courierProfilesPath    = "/profiles/"
	courierMessagesPath    = "/messages"

	// courierContentVersion is the elemental content schema version.
	courierContentVersion = "2022-01-01"
)

// Courier implements the Provider interface for the Courier REST API.
type Courier struct {
	apiKey   string
	endpoint string
	client   HTTPClient
}

// NewCourier creates a Courier provider from the given configuration.
func NewCourier(cfg Config, client HTTPClient) *Courier {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = courierDefaultEndpoint
	}
	return &Courier{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   client,
	}
}

func (c *Courier) GetName() string { return "courier" }

// ReplaceProfile fully replaces a recipient's stored contact profile via
// PUT /profiles/{recipient_id}.
func (c *Courier) ReplaceProfile(ctx context.Context, recipientID string, profile Profile) error {
	body, err := json.Marshal(courierProfilePayload{Profile: profile})
	if err != nil {
		return fmt.Errorf("courier: marshal profile: %w", err)
	}

	resp, err := c.client.Do(ctx, &HTTPRequest{
		Method:  "PUT",
		URL:     c.endpoint + courierProfilesPath + url.PathEscape(recipientID),
		Headers: c.headers(),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("courier: replace profile request: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return ClassifyHTTPError("courier", resp.StatusCode, string(resp.Body))
}

// Send delivers a composed message via POST /send. One call covers every
// recipient; Courier substitutes each recipient's template data server-side.
func (c *Courier) Send(ctx context.Context, msg *Message) (*SendResult, error) {
	body, err := json.Marshal(c.buildPayload(msg))
	if err != nil {
		return nil, fmt.Errorf("courier: marshal send request: %w", err)
	}

	resp, err := c.client.Do(ctx, &HTTPRequest{
		Method:  "POST",
		URL:     c.endpoint + courierSendPath,
		Headers: c.headers(),
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("courier: send request: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var accepted courierSendResponse
		_ = json.Unmarshal(resp.Body, &accepted)
		return &SendResult{
			RequestID: accepted.RequestID,
			Status:    StatusSent,
			Timestamp: time.Now(),
		}, nil
	}

	return nil, ClassifyHTTPError("courier", resp.StatusCode, string(resp.Body))
}

// HealthCheck verifies API connectivity and credentials by listing messages.
func (c *Courier) HealthCheck(ctx context.Context) error {
	resp, err := c.client.Do(ctx, &HTTPRequest{
		Method:  "GET",
		URL:     c.endpoint + courierMessagesPath,
		Headers: c.headers(),
	})
	if err != nil {
		return fmt.Errorf("courier: health check request: %w", err)
	}

	if resp.StatusCode != 200 {
		return fmt.Errorf("courier: health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Courier) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}
}

// courierSendPayload matches the Courier /send JSON schema.
type courierSendPayload struct {
	Message courierMessage `json:"message"`
}

type courierMessage struct {
	To      []courierTo    `json:"to"`
	Content courierContent `json:"content"`
	Routing Routing        `json:"routing"`
}

type courierTo struct {
	UserID  string          `json:"user_id"`
	Data    map[string]any  `json:"data,omitempty"`
	Courier *courierBinding `json:"courier,omitempty"`
}

// courierBinding routes the in-app copy to the recipient's named channel.
type courierBinding struct {
	Channel string `json:"channel"`
}

type courierContent struct {
	Version  string           `json:"version"`
	Elements []courierElement `json:"elements"`
}

type courierElement struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Loop    string `json:"loop,omitempty"`
}

type courierProfilePayload struct {
	Profile Profile `json:"profile"`
}

type courierSendResponse struct {
	RequestID string `json:"requestId"`
}

func (c *Courier) buildPayload(msg *Message) courierSendPayload {
	tos := make([]courierTo, len(msg.To))
	for i, rcpt := range msg.To {
		to := courierTo{
			UserID: rcpt.UserID,
			Data:   rcpt.Data,
		}
		if rcpt.ChannelID != "" {
			to.Courier = &courierBinding{Channel: rcpt.ChannelID}
		}
		tos[i] = to
	}

	elements := make([]courierElement, len(msg.Elements))
	for i, el := range msg.Elements {
		elements[i] = courierElement{
			Type:    el.Type,
			Title:   el.Title,
			Content: el.Content,
			Loop:    el.Loop,
		}
	}

	version := msg.Version
	if version == "" {
		version = courierContentVersion
	}

	return courierSendPayload{
		Message: courierMessage{
			To: tos,
			Content: courierContent{
				Version:  version,
				Elements: elements,
			},
			Routing: msg.Routing,
		},
	}
}
