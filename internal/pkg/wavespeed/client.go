package wavespeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ds124wfegd/genrelay/internal/entity"
	"github.com/ds124wfegd/genrelay/internal/pkg/retry"
)

// upper bound on a single upstream body; base64 outputs can be large
const maxResponseBytes = 512 << 20

type Client interface {
	Submit(ctx context.Context, endpoint, apiKey string, payload interface{}) (*entity.Submission, error)
	Status(ctx context.Context, statusURL, apiKey string) (*entity.StatusRecord, error)
}

type httpClient struct {
	http *http.Client
}

// NewClient returns a client whose every request is capped by timeout.
func NewClient(timeout time.Duration) Client {
	return &httpClient{http: &http.Client{Timeout: timeout}}
}

func (c *httpClient) Submit(ctx context.Context, endpoint, apiKey string, payload interface{}) (*entity.Submission, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	code, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	// error bodies are often plain text, so they are passed on as-is
	if code < 200 || code > 299 {
		return nil, fmt.Errorf("%w: %s", entity.ErrUpstreamRejected, string(body))
	}

	return parseSubmission(body)
}

func (c *httpClient) Status(ctx context.Context, statusURL, apiKey string) (*entity.StatusRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	code, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case code == http.StatusTooManyRequests || code >= 500:
		return nil, retry.Transient(fmt.Errorf("status check error (status %d): %s", code, string(body)))
	case code < 200 || code > 299:
		return nil, fmt.Errorf("status check rejected (status %d): %s", code, string(body))
	}

	return parseStatus(body)
}

func (c *httpClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", entity.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %w", entity.ErrTransport, err)
	}
	return resp.StatusCode, body, nil
}
