package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes bounds how much of a provider response body is read.
// Courier responses are small JSON documents.
const maxResponseBytes = 1 << 20

// netHTTPClient executes HTTPRequests over a net/http.Client.
type netHTTPClient struct {
	client *http.Client
}

// NewHTTPClient returns an HTTPClient backed by net/http with the given
// per-request timeout.
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &netHTTPClient{client: &http.Client{Timeout: timeout}}
}

func (c *netHTTPClient) Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	out, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.Method, req.URL, err)
	}
	for name, value := range req.Headers {
		out.Header.Set(name, value)
	}

	resp, err := c.client.Do(out)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       payload,
	}, nil
}
