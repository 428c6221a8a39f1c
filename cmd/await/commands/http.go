package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/await/pkg/accessors"
)

func newHTTPCommand() *cobra.Command {
	var expectStatus int

	cmd := &cobra.Command{
		Use:   "http <url>",
		Short: "Wait for an HTTP endpoint to return an expected status",
		Long: `Wait until an HTTP GET against the URL returns the expected status code.

Connection failures and unexpected status codes are retried. An invalid
URL fails immediately.`,
		Example: `  # Wait for a health endpoint
  await http https://api.internal/healthz

  # Accept 204 instead of the default 200
  await http http://localhost:8080/ready --expect 204`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			probe := accessors.NewHTTPStatus(args[0])
			probe.Expect = expectStatus
			return runWait(cmd.Context(), cmd, "http", args[0], probe,
				func(status int) string { return fmt.Sprintf("HTTP %d", status) })
		},
	}

	cmd.Flags().IntVar(&expectStatus, "expect", 200, "expected HTTP status code")

	return cmd
}
