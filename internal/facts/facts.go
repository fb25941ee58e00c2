// Package facts fetches a short text fact from the Cat Facts API.
package facts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrUpstreamStatus is returned when the provider answers with a non-2xx status.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	// ErrMalformedBody is returned when the provider body is not the expected JSON.
	ErrMalformedBody = errors.New("malformed upstream body")
	// ErrEmptyFact is returned when the body has no usable fact.
	ErrEmptyFact = errors.New("upstream returned no fact")
)

const maxBodyBytes = 64 << 10

// Provider returns one fact per call.
type Provider interface {
	Fetch(ctx context.Context) (Fact, error)
}

// Fact is the provider payload.
type Fact struct {
	Fact   string `json:"fact"`
	Length int    `json:"length"`
}

// Client talks to a Cat Facts compatible API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client for baseURL. timeout is a hard ceiling on each call.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch performs exactly one GET {base}/fact.
func (c *Client) Fetch(ctx context.Context) (Fact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/fact", nil)
	if err != nil {
		return Fact{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Fact{}, fmt.Errorf("get fact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Fact{}, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Fact{}, fmt.Errorf("read body: %w", err)
	}

	var f Fact
	if err := json.Unmarshal(body, &f); err != nil {
		return Fact{}, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if strings.TrimSpace(f.Fact) == "" {
		return Fact{}, ErrEmptyFact
	}
	return f, nil
}
