// Package verify holds the black-box acceptance checks run against a live
// profile service by cmd/profilecheck.
package verify

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/celerix-dev/wizards-profile/pkg/schema"
	"github.com/celerix-dev/wizards-profile/pkg/sdk"
)

// Level grades a Finding. Only LevelFail counts as a failed check, and even
// that is advisory: it never aborts the run.
type Level int

const (
	LevelPass Level = iota
	LevelFail
	LevelWarn
	LevelNote
)

func (l Level) String() string {
	switch l {
	case LevelPass:
		return "ok"
	case LevelFail:
		return "fail"
	case LevelWarn:
		return "warn"
	case LevelNote:
		return "note"
	default:
		return "unknown"
	}
}

// Finding is one line of the report.
type Finding struct {
	Level   Level
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s", f.Level, f.Message)
}

// TimestampPattern is ISO 8601 UTC with exactly three fractional digits.
var TimestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)

func pass(msg string) Finding { return Finding{Level: LevelPass, Message: msg} }
func fail(msg string) Finding { return Finding{Level: LevelFail, Message: msg} }

// Check validates one /me reply. Every check runs regardless of earlier failures.
func Check(raw sdk.RawReply) []Finding {
	var out []Finding

	if raw.StatusCode >= 200 && raw.StatusCode <= 299 {
		out = append(out, pass(fmt.Sprintf("HTTP status is %d", raw.StatusCode)))
	} else {
		out = append(out, fail(fmt.Sprintf("HTTP status should be 2xx, got %d", raw.StatusCode)))
	}

	var body map[string]any
	if err := json.Unmarshal(raw.Body, &body); err != nil {
		out = append(out, fail("response body is not a JSON object: "+err.Error()))
		body = map[string]any{}
	}

	if body["status"] == schema.StatusSuccess {
		out = append(out, pass(`status is "success"`))
	} else {
		out = append(out, fail(`status field should be "success"`))
	}

	user, ok := body["user"].(map[string]any)
	if !ok {
		out = append(out, fail("user field is missing or invalid"))
	} else {
		for _, field := range []string{"email", "name", "stack"} {
			if nonEmptyString(user[field]) {
				out = append(out, pass("user."+field+" is present"))
			} else {
				out = append(out, fail("user."+field+" is missing"))
			}
		}
	}

	ts, present := body["timestamp"]
	switch {
	case !present || !nonEmptyString(ts):
		out = append(out, fail("timestamp field is missing"))
	case !TimestampPattern.MatchString(ts.(string)):
		out = append(out, fail("timestamp is not in ISO 8601 format"))
	default:
		out = append(out, pass("timestamp is ISO 8601 with milliseconds"))
	}

	if nonEmptyString(body["fact"]) {
		out = append(out, pass("fact is a non-empty string"))
	} else {
		out = append(out, fail("fact field is missing or invalid"))
	}

	if strings.Contains(raw.ContentType, "application/json") {
		out = append(out, pass("Content-Type is application/json"))
	} else {
		out = append(out, fail("Content-Type header should be application/json"))
	}

	return out
}

// Compare reports on two sequential replies. It only ever warns or notes.
func Compare(first, second schema.ProfileResponse) []Finding {
	var out []Finding

	if first.Timestamp == second.Timestamp {
		out = append(out, Finding{Level: LevelWarn, Message: "timestamps are identical (should update on each request)"})
	} else {
		out = append(out, pass("timestamp updates on new requests"))
	}

	if first.Fact == second.Fact {
		out = append(out, Finding{Level: LevelNote, Message: "facts are identical (this can happen by chance)"})
	} else {
		out = append(out, pass("facts are fetched dynamically"))
	}

	return out
}

// Failures counts LevelFail findings.
func Failures(findings []Finding) int {
	n := 0
	for _, f := range findings {
		if f.Level == LevelFail {
			n++
		}
	}
	return n
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}
