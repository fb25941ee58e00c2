package sdk

import (
	"context"
	"errors"
	"fmt"

	"github.com/celerix-dev/wizards-profile/pkg/schema"
)

var (
	// ErrEmptyBaseURL is returned by Connect when no target is given.
	ErrEmptyBaseURL = errors.New("base url is empty")
	// ErrInvalidBaseURL is returned by Connect for a target without an http(s) scheme.
	ErrInvalidBaseURL = errors.New("base url must start with http:// or https://")
)

// ProfileSource fetches the service documents. *Client satisfies it; tests use fakes.
type ProfileSource interface {
	Root(ctx context.Context) (*schema.RootResponse, error)
	Profile(ctx context.Context) (*ProfileReply, error)
}

// RawReply is what came back on the wire.
type RawReply struct {
	StatusCode  int
	ContentType string
	RequestID   string
	Body        []byte
}

// ProfileReply is a 2xx answer to GET /me. DecodeErr is set when the body was
// not a ProfileResponse; Profile then holds whatever could be decoded.
type ProfileReply struct {
	Raw       RawReply
	Profile   schema.ProfileResponse
	DecodeErr error
}

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Path string
	Raw  RawReply
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.Path, e.Raw.StatusCode)
}
