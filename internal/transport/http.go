package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Static errors for HTTP transport operations.
var (
	// ErrBaseURLRequired is returned when the sender URL is not provided.
	ErrBaseURLRequired = errors.New("transport: base URL is required")
	// ErrCommandRejected is returned when the player endpoint responds with
	// a non-2xx status.
	ErrCommandRejected = errors.New("transport: command rejected")
)

// Compile-time check that HTTPSender implements Sender.
var _ Sender = (*HTTPSender)(nil)

// HTTPSender posts commands as JSON to an external audio player endpoint.
type HTTPSender struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPSenderOption configures an HTTPSender.
type HTTPSenderOption func(*HTTPSender)

// WithHTTPClient sets a custom HTTP client (e.g. for tests).
func WithHTTPClient(client *http.Client) HTTPSenderOption {
	return func(s *HTTPSender) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewHTTPSender creates a sender posting to the given base URL.
func NewHTTPSender(baseURL string, opts ...HTTPSenderOption) (*HTTPSender, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	s := &HTTPSender{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send implements Sender by POSTing the command as a JSON body.
func (s *HTTPSender) Send(ctx context.Context, cmd Command) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("transport: marshal command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transport: send %s: %w", cmd.Command, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status %d", ErrCommandRejected, cmd.Command, resp.StatusCode)
	}
	return nil
}
