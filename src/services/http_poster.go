package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultDeliveryTimeout bounds a single outbound POST
const DefaultDeliveryTimeout = 5 * time.Second

// maxResponseBody caps how much of a receiver's response is kept for logging
const maxResponseBody = 64 * 1024

// DeliveryResponse is what a receiver answered
type DeliveryResponse struct {
	StatusCode int
	Body       string
}

// Poster sends a JSON body to a URL. A non-nil error means no response was received.
type Poster interface {
	Post(ctx context.Context, url string, body []byte, headers map[string]string) (*DeliveryResponse, error)
}

// HTTPPoster is the net/http implementation of Poster
type HTTPPoster struct {
	client *http.Client
}

// NewHTTPPoster creates a poster whose requests time out after timeout.
// A non-positive timeout falls back to DefaultDeliveryTimeout.
func NewHTTPPoster(timeout time.Duration) *HTTPPoster {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return &HTTPPoster{
		client: &http.Client{Timeout: timeout},
	}
}

// Post sends body with Content-Type application/json plus any extra headers.
// Non-2xx answers are returned as responses, not errors.
func (p *HTTPPoster) Post(ctx context.Context, url string, body []byte, headers map[string]string) (*DeliveryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hook-expose/1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	return &DeliveryResponse{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
	}, nil
}
