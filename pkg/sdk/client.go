// Package sdk provides the client-side library for talking to a running
// Backend Wizards profile service.
package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/celerix-dev/wizards-profile/pkg/schema"
)

// Client is a remote client for the profile service.
// It implements the ProfileSource interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Connect returns a Client for baseURL. No request is made until a method is called.
func Connect(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL is the normalised target.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Profile performs GET /me. A transport error or a non-2xx answer is returned
// as an error; a *StatusError carries what the server did send.
func (c *Client) Profile(ctx context.Context) (*ProfileReply, error) {
	raw, err := c.get(ctx, schema.ProfilePath)
	if err != nil {
		return nil, err
	}

	reply := &ProfileReply{Raw: *raw}
	if err := json.Unmarshal(raw.Body, &reply.Profile); err != nil {
		// Kept as a soft failure: the verifier reports missing fields itself.
		reply.DecodeErr = err
	}
	return reply, nil
}

// Root performs GET /.
func (c *Client) Root(ctx context.Context) (*schema.RootResponse, error) {
	raw, err := c.get(ctx, "/")
	if err != nil {
		return nil, err
	}
	var root schema.RootResponse
	if err := json.Unmarshal(raw.Body, &root); err != nil {
		return nil, fmt.Errorf("decode root document: %w", err)
	}
	return &root, nil
}

func (c *Client) get(ctx context.Context, path string) (*RawReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	raw := &RawReply{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		RequestID:   resp.Header.Get("X-Request-ID"),
		Body:        body,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Path: path, Raw: *raw}
	}
	return raw, nil
}
