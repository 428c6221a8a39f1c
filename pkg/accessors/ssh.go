package accessors

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/openfroyo/await/pkg/deferred"
)

// SSHAuthMethod represents the type of SSH authentication.
type SSHAuthMethod string

const (
	// SSHAuthPassword uses password authentication
	SSHAuthPassword SSHAuthMethod = "password"

	// SSHAuthKey uses private key authentication
	SSHAuthKey SSHAuthMethod = "key"
)

// SSHConfig holds SSH connection configuration for remote probes.
type SSHConfig struct {
	// Host is the remote hostname or IP address
	Host string

	// Port is the SSH port (default: 22)
	Port int

	// User is the SSH username
	User string

	// AuthMethod specifies which authentication method to use
	AuthMethod SSHAuthMethod

	// Password for password-based authentication
	Password string

	// PrivateKeyPath is the path to the private key file
	PrivateKeyPath string

	// PrivateKeyPassphrase is the passphrase for encrypted private keys
	PrivateKeyPassphrase string

	// KnownHostsPath is the path to the known_hosts file.
	// If empty, host key verification is disabled (not recommended for production)
	KnownHostsPath string

	// StrictHostKeyChecking enables strict host key verification
	StrictHostKeyChecking bool

	// ConnectTimeout is the timeout for establishing a connection
	ConnectTimeout time.Duration
}

// DefaultSSHConfig returns an SSHConfig with sensible defaults.
func DefaultSSHConfig(host, user string) *SSHConfig {
	return &SSHConfig{
		Host:                  host,
		Port:                  22,
		User:                  user,
		AuthMethod:            SSHAuthKey,
		KnownHostsPath:        filepath.Join(os.Getenv("HOME"), ".ssh", "known_hosts"),
		StrictHostKeyChecking: true,
		ConnectTimeout:        10 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *SSHConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}

	switch c.AuthMethod {
	case SSHAuthPassword:
		if c.Password == "" {
			return fmt.Errorf("password is required for password authentication")
		}
	case SSHAuthKey:
		if c.PrivateKeyPath == "" {
			homeDir := os.Getenv("HOME")
			defaultKeys := []string{
				filepath.Join(homeDir, ".ssh", "id_ed25519"),
				filepath.Join(homeDir, ".ssh", "id_rsa"),
				filepath.Join(homeDir, ".ssh", "id_ecdsa"),
			}
			for _, keyPath := range defaultKeys {
				if _, err := os.Stat(keyPath); err == nil {
					c.PrivateKeyPath = keyPath
					break
				}
			}
			if c.PrivateKeyPath == "" {
				return fmt.Errorf("private key path is required for key authentication and no default key found")
			}
		}
		if _, err := os.Stat(c.PrivateKeyPath); os.IsNotExist(err) {
			return fmt.Errorf("private key file not found: %s", c.PrivateKeyPath)
		}
	default:
		return fmt.Errorf("unsupported auth method: %s", c.AuthMethod)
	}

	return nil
}

// buildClientConfig creates an ssh.ClientConfig from the SSHConfig.
func (c *SSHConfig) buildClientConfig() (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	switch c.AuthMethod {
	case SSHAuthPassword:
		authMethods = append(authMethods, ssh.Password(c.Password))
		// Many servers only offer keyboard-interactive for the password prompt
		authMethods = append(authMethods, ssh.KeyboardInteractive(
			func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = c.Password
				}
				return answers, nil
			},
		))

	case SSHAuthKey:
		keyBytes, err := os.ReadFile(c.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}

		var signer ssh.Signer
		if c.PrivateKeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(c.PrivateKeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(keyBytes)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}

		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	var hostKeyCallback ssh.HostKeyCallback
	if c.KnownHostsPath != "" && c.StrictHostKeyChecking {
		var err error
		hostKeyCallback, err = knownhosts.New(c.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	} else {
		// Insecure: accept any host key (only for testing/development)
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

// Address returns the formatted SSH address (host:port).
func (c *SSHConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RemoteCommand probes a remote host over SSH by running a command and
// succeeding when it exits zero. The resolved value is the command's
// combined stdout. Typical use: waiting for `systemctl is-active foo` or a
// marker file check on a host that is still booting.
type RemoteCommand struct {
	// Config is the SSH connection configuration.
	Config *SSHConfig

	// Command is the shell command to run on the remote host.
	Command string
}

// NewRemoteCommand creates an SSH remote-command accessor.
func NewRemoteCommand(cfg *SSHConfig, command string) *RemoteCommand {
	return &RemoteCommand{Config: cfg, Command: command}
}

// Resolve implements deferred.Deferred. Failure classification:
//
//   - invalid configuration or an unreadable/unparsable key: permanent
//   - connection failure: transient (the host may still be booting)
//   - authentication rejection: permanent (credentials will not improve)
//   - non-zero command exit: transient (the probed condition may still come true)
func (r *RemoteCommand) Resolve(ctx context.Context) (string, error) {
	if err := r.Config.Validate(); err != nil {
		return "", deferred.NewPermanentError("invalid SSH config", err).WithSource(r.String())
	}

	clientConfig, err := r.Config.buildClientConfig()
	if err != nil {
		return "", deferred.NewPermanentError("building SSH client config", err).WithSource(r.String())
	}

	conn, err := dialSSH(ctx, r.Config.Address(), clientConfig)
	if err != nil {
		if isAuthFailure(err) {
			return "", deferred.NewPermanentError("SSH authentication rejected", err).WithSource(r.String())
		}
		return "", deferred.NewTransientError("SSH connection failed", err).WithSource(r.String())
	}
	defer conn.Close()

	session, err := conn.NewSession()
	if err != nil {
		return "", deferred.NewTransientError("opening SSH session", err).WithSource(r.String())
	}
	defer session.Close()

	out, err := session.CombinedOutput(r.Command)
	if err != nil {
		return "", deferred.NewTransientError("remote command failed", err).WithSource(r.String())
	}
	return string(out), nil
}

// dialSSH establishes an SSH connection honoring context cancellation for
// the TCP dial; the handshake itself is bounded by the client config timeout.
func dialSSH(ctx context.Context, address string, config *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: config.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, address, config)
	if err != nil {
		_ = netConn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// isAuthFailure reports whether an SSH handshake error is an authentication
// rejection rather than a connectivity problem.
func isAuthFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}

// String implements fmt.Stringer.
func (r *RemoteCommand) String() string {
	return fmt.Sprintf("ssh://%s@%s:%d %q", r.Config.User, r.Config.Host, r.Config.Port, r.Command)
}
