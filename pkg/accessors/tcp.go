package accessors

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/openfroyo/await/pkg/deferred"
)

// DefaultProbeTimeout bounds a single connection probe. It is deliberately
// short: the ensure loop supplies the long wait, not the probe.
const DefaultProbeTimeout = 3 * time.Second

// TCPEndpoint probes whether a TCP endpoint accepts connections. The
// resolved value is the remote address of the successful probe connection.
type TCPEndpoint struct {
	// Address is the target in host:port form.
	Address string

	// Timeout bounds a single probe. Defaults to DefaultProbeTimeout.
	Timeout time.Duration
}

// NewTCPEndpoint creates a TCP endpoint accessor for the given address.
func NewTCPEndpoint(address string) *TCPEndpoint {
	return &TCPEndpoint{Address: address}
}

// Resolve implements deferred.Deferred. A refused or timed-out connection is
// transient: the listener may not be up yet. A malformed address is
// permanent: no amount of waiting fixes it.
func (e *TCPEndpoint) Resolve(ctx context.Context) (net.Addr, error) {
	if _, _, err := net.SplitHostPort(e.Address); err != nil {
		return nil, deferred.NewPermanentError("malformed address", err).WithSource(e.String())
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", e.Address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, deferred.NewPermanentError("probe canceled", err).WithSource(e.String())
		}
		return nil, deferred.NewTransientError("endpoint not accepting connections", err).WithSource(e.String())
	}

	addr := conn.RemoteAddr()
	_ = conn.Close()
	return addr, nil
}

// String implements fmt.Stringer.
func (e *TCPEndpoint) String() string {
	return fmt.Sprintf("tcp://%s", e.Address)
}
