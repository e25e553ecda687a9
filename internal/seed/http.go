package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrStatus is returned for a response with an unexpected status code.
var ErrStatus = errors.New("unexpected status")

// Client talks JSON to the service.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for baseURL with a per request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Post sends body as JSON and returns the status and the response body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (int, []byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal %s body: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// GetJSON decodes the body of a 200 answer to GET path into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: GET %s: %d %s", ErrStatus, path, status, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s: %w", req.URL.Path, err)
	}
	return resp.StatusCode, body, nil
}

// mustCreate posts a catalog record and requires a 200.
func (c *Client) mustCreate(ctx context.Context, path string, body interface{}) error {
	status, raw, err := c.Post(ctx, path, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: POST %s: %d %s", ErrStatus, path, status, raw)
	}
	return nil
}

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeFailed
)

const (
	maxAttempts  = 5
	retryBackoff = 50 * time.Millisecond
)

// submit posts one event, retrying with a linear backoff while the service
// answers 429. It reports how many retries were needed.
func (c *Client) submit(ctx context.Context, e Event) (outcome, int) { //nolint:gocritic // hugeParam: events travel by value
	for attempt := 0; attempt < maxAttempts; attempt++ {
		status, body, err := c.Post(ctx, e.Path, e)
		if err != nil {
			return outcomeFailed, attempt
		}
		switch status {
		case http.StatusAccepted:
			return outcomeAccepted, attempt
		case http.StatusOK:
			var ack AckResponse
			if json.Unmarshal(body, &ack) == nil && ack.Duplicate {
				return outcomeDuplicate, attempt
			}
			return outcomeFailed, attempt
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return outcomeFailed, attempt
			case <-time.After(time.Duration(attempt+1) * retryBackoff):
			}
		default:
			return outcomeFailed, attempt
		}
	}
	return outcomeFailed, maxAttempts
}
