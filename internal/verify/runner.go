package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/celerix-dev/wizards-profile/pkg/schema"
	"github.com/celerix-dev/wizards-profile/pkg/sdk"
)

// Report summarises a completed run.
type Report struct {
	Checks      []Finding
	Comparisons []Finding
}

// Passed reports whether no structural check failed.
func (r *Report) Passed() bool {
	return Failures(r.Checks) == 0
}

// Runner drives the two-request acceptance run and prints as it goes.
type Runner struct {
	Source sdk.ProfileSource
	Target string
	Out    io.Writer

	// Wait separates the two requests.
	Wait time.Duration
}

// Run returns an error only for request-level failures, including an
// unreachable GET / before the profile requests. Check failures are printed
// and reported in the Report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	fmt.Fprintf(out, "Testing endpoint: %s%s\n\n", r.Target, schema.ProfilePath)

	root, err := r.Source.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("service not reachable: %w", err)
	}
	fmt.Fprintf(out, "Service: %s\n\n", root.Message)

	first, err := r.Source.Profile(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Status Code: %d\n", first.Raw.StatusCode)
	fmt.Fprintf(out, "Content-Type: %s\n", first.Raw.ContentType)
	fmt.Fprintln(out, "\nResponse Data:")
	fmt.Fprintln(out, prettyJSON(first.Raw.Body))

	report := &Report{Checks: Check(first.Raw)}
	if first.DecodeErr != nil {
		report.Checks = append(report.Checks, Finding{Level: LevelWarn, Message: "body does not decode as a profile: " + first.DecodeErr.Error()})
	}

	banner := strings.Repeat("=", 50)
	fmt.Fprintln(out, "\n"+banner)
	if report.Passed() {
		fmt.Fprintln(out, "ALL CHECKS PASSED")
		for _, f := range report.Checks {
			fmt.Fprintln(out, f)
		}
	} else {
		fmt.Fprintf(out, "CHECKS FAILED (%d):\n", Failures(report.Checks))
		for _, f := range report.Checks {
			if f.Level != LevelPass {
				fmt.Fprintln(out, f)
			}
		}
	}
	fmt.Fprintln(out, banner)

	fmt.Fprintln(out, "\nTesting timestamp dynamics...")
	if err := sleep(ctx, r.Wait); err != nil {
		return report, err
	}

	second, err := r.Source.Profile(ctx)
	if err != nil {
		return report, err
	}

	switch {
	case first.DecodeErr != nil:
		report.Comparisons = []Finding{{Level: LevelWarn, Message: "comparison skipped: first body does not decode as a profile"}}
	case second.DecodeErr != nil:
		report.Comparisons = []Finding{{Level: LevelWarn, Message: "comparison skipped: second body does not decode as a profile: " + second.DecodeErr.Error()}}
	default:
		report.Comparisons = Compare(first.Profile, second.Profile)
	}
	for _, f := range report.Comparisons {
		fmt.Fprintln(out, f)
	}

	return report, nil
}

// DescribeError renders a request-level failure, including what the server
// sent back when it did answer.
func DescribeError(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error testing endpoint: %v", err)

	var statusErr *sdk.StatusError
	if errors.As(err, &statusErr) {
		fmt.Fprintf(&b, "\nResponse status: %d", statusErr.Raw.StatusCode)
		fmt.Fprintf(&b, "\nResponse data: %s", prettyJSON(statusErr.Raw.Body))
	}
	return b.String()
}

func prettyJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
