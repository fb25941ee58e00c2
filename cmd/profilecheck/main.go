package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/celerix-dev/wizards-profile/internal/config"
	"github.com/celerix-dev/wizards-profile/internal/verify"
	"github.com/celerix-dev/wizards-profile/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	targetURL      string
	wait           time.Duration
	requestTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "profilecheck",
	Short: "Acceptance check for a running profile service",
	Long: `profilecheck confirms GET / answers on a running Backend Wizards profile
service, calls GET /me and validates the response envelope, then calls it
again to compare timestamps and facts. It exits non-zero only when a request
cannot be completed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&targetURL, "url", "", "Base URL of the service (default: $TEST_URL or http://localhost:3000)")
	rootCmd.Flags().DurationVar(&wait, "wait", time.Second, "Pause between the two requests")
	rootCmd.Flags().DurationVar(&requestTimeout, "timeout", 10*time.Second, "Per-request timeout")
}

func run(cmd *cobra.Command, args []string) error {
	if targetURL == "" {
		targetURL = config.TestURL()
	}

	client, err := sdk.Connect(targetURL, requestTimeout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runner := &verify.Runner{
		Source: client,
		Target: client.BaseURL(),
		Out:    cmd.OutOrStdout(),
		Wait:   wait,
	}
	_, err = runner.Run(ctx)
	return err
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, verify.DescribeError(err))
		os.Exit(1)
	}
}
