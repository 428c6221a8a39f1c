package commands

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/openfroyo/await/pkg/accessors"
)

func newTCPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tcp <host:port>",
		Short: "Wait for a TCP endpoint to accept connections",
		Long: `Wait until a TCP endpoint accepts connections.

Connection refusals and timeouts are retried until the time budget runs
out. A malformed address fails immediately.`,
		Example: `  # Wait up to a minute for a database port
  await tcp db.internal:5432

  # Short budget with exponential backoff
  await tcp 10.0.0.5:22 --timeout 30s --backoff exponential`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			probe := accessors.NewTCPEndpoint(args[0])
			return runWait(cmd.Context(), cmd, "tcp", probe.String(), probe,
				func(addr net.Addr) string { return addr.String() })
		},
	}

	return cmd
}
