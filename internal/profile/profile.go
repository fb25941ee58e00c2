// Package profile composes the /me envelope from configured identity and the
// outcome of a single fact lookup.
package profile

import (
	"time"

	"github.com/celerix-dev/wizards-profile/pkg/schema"
)

// Identity holds the configured user fields. Each is expected to be non-empty.
type Identity struct {
	Email string
	Name  string
	Stack string
}

// Result is the outcome of one attempt at the fact provider: either Ok with
// the fact text, or Failed with the reason.
type Result struct {
	fact string
	err  error
}

// Ok wraps a fact returned by the provider.
func Ok(fact string) Result {
	return Result{fact: fact}
}

// Failed wraps the reason the provider could not be used.
func Failed(reason error) Result {
	return Result{err: reason}
}

// Succeeded reports whether the provider returned a fact.
func (r Result) Succeeded() bool {
	return r.err == nil
}

// Reason is the provider failure, nil for Ok.
func (r Result) Reason() error {
	return r.err
}

// Fact is the provider text for Ok, schema.FallbackFact for Failed.
func (r Result) Fact() string {
	if r.err != nil {
		return schema.FallbackFact
	}
	return r.fact
}

// Compose maps either Result variant to the same success envelope.
func Compose(id Identity, r Result, now time.Time) schema.ProfileResponse {
	return schema.ProfileResponse{
		Status: schema.StatusSuccess,
		User: schema.User{
			Email: id.Email,
			Name:  id.Name,
			Stack: id.Stack,
		},
		Timestamp: FormatTimestamp(now),
		Fact:      r.Fact(),
	}
}

// FormatTimestamp renders t as UTC ISO 8601 with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(schema.TimestampLayout)
}
