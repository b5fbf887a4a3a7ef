package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"identity/internal/session"
)

// classifyRequest is the wire shape sent to the collaborator.
type classifyRequest struct {
	DeviceID string         `json:"device_id"`
	History  []session.Turn `json:"history"`
	Text     string         `json:"text"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("intent: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client calls the intent collaborator over HTTP JSON.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Classifier = (*Client)(nil)

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Classify(ctx context.Context, deviceID string, history []session.Turn, text string) (Result, error) {
	body, err := json.Marshal(classifyRequest{
		DeviceID: deviceID,
		History:  history,
		Text:     text,
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent: encode request: %w", err)
	}

	url := c.baseURL + "/classify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("intent: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("intent: call collaborator: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("intent: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &HTTPStatusError{StatusCode: resp.StatusCode, URL: url, Body: string(raw)}
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if err := result.Validate(); err != nil {
		return Result{}, err
	}
	return result, nil
}
