package base

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/ValentinKolb/rFS/rpc/transport"
	"net"
	"time"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific client operations
type IClientConnector interface {
	// Connect dials the endpoint
	Connect(ctx context.Context, endpoint string) (net.Conn, error)

	// UpgradeConnection applies transport specific socket options to a new connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientTransport opens one connection per exchange
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport using the given connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Configure(config common.ClientConfig) error {
	if config.Transport.Endpoint == "" {
		return fmt.Errorf("no endpoint configured")
	}
	t.config = config
	return nil
}

func (t *clientTransport) Exchange(ctx context.Context, req []byte) ([]byte, error) {
	timeout := t.config.Timeout()

	dialCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := t.connector.Connect(dialCtx, t.config.Transport.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %v", common.ErrTransport, t.config.Transport.Endpoint, err)
	}
	defer conn.Close()

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Warningf("Failed to apply socket options: %v", err)
	}

	// a cancelled context interrupts blocked reads and writes
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("%w: failed to set write deadline: %v", common.ErrTransport, err)
		}
	}
	if err := WriteFrame(conn, req); err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", common.ErrTransport, err)
	}

	if timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("%w: failed to set read deadline: %v", common.ErrTransport, err)
		}
	}
	resp, err := ReadFrame(conn, t.config.MaxFrameBytes())
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrTransport, ctx.Err())
		}
		return nil, fmt.Errorf("%w: failed to read response: %v", common.ErrTransport, err)
	}

	return resp, nil
}
