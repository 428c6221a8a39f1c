package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openfroyo/await/pkg/accessors"
)

func newSSHCommand() *cobra.Command {
	var (
		port           int
		user           string
		password       string
		keyPath        string
		keyPassphrase  string
		knownHosts     string
		insecure       bool
		connectTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ssh <host> <command>",
		Short: "Wait for a remote command to succeed over SSH",
		Long: `Wait until a command run over SSH on the remote host exits zero.

Connection failures and non-zero exits are retried; the host may still be
booting. Authentication rejections and unreadable keys fail immediately.

Authentication uses the private key at --key (or a default key from
~/.ssh) unless --password is given.`,
		Example: `  # Wait for a service on a freshly provisioned host
  await ssh web-01 "systemctl is-active nginx" --user deploy

  # Password auth against a test VM, skipping host key checks
  await ssh 192.168.56.10 "test -f /ready" --user root --password secret --insecure`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, command := args[0], args[1]

			cfg := accessors.DefaultSSHConfig(host, user)
			cfg.Port = port
			cfg.PrivateKeyPath = keyPath
			cfg.PrivateKeyPassphrase = keyPassphrase
			cfg.ConnectTimeout = connectTimeout
			if password != "" {
				cfg.AuthMethod = accessors.SSHAuthPassword
				cfg.Password = password
			}
			if knownHosts != "" {
				cfg.KnownHostsPath = knownHosts
			}
			if insecure {
				cfg.StrictHostKeyChecking = false
			}

			probe := accessors.NewRemoteCommand(cfg, command)
			return runWait(cmd.Context(), cmd, "ssh", probe.String(), probe,
				func(out string) string { return strings.TrimSpace(out) })
		},
	}

	cmd.Flags().IntVar(&port, "port", 22, "SSH port")
	cmd.Flags().StringVarP(&user, "user", "u", "root", "SSH username")
	cmd.Flags().StringVar(&password, "password", "", "password for password authentication")
	cmd.Flags().StringVarP(&keyPath, "key", "k", "", "private key path (default: a key from ~/.ssh)")
	cmd.Flags().StringVar(&keyPassphrase, "key-passphrase", "", "passphrase for an encrypted private key")
	cmd.Flags().StringVar(&knownHosts, "known-hosts", "", "known_hosts file path")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "skip host key verification")
	cmd.Flags().DurationVar(&connectTimeout, "connect-timeout", 10*time.Second, "SSH connection timeout")

	return cmd
}
