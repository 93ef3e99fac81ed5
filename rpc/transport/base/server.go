package base

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/ValentinKolb/rFS/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"sync"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// UpgradeConnection applies transport specific socket options to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the accept loop shared by all stream transports
type serverTransport struct {
	connector IServerConnector
	dispatch  transport.DispatchFunc

	ready    chan struct{}
	readyMu  sync.Once
	listener net.Listener
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport using the given connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		ready:     make(chan struct{}),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterDispatcher(dispatch transport.DispatchFunc) {
	t.dispatch = dispatch
}

func (t *serverTransport) Listen(ctx context.Context, config common.ServerConfig) error {
	if t.dispatch == nil {
		return fmt.Errorf("no dispatcher registered")
	}

	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	if backlog := config.Transport.Backlog; backlog > 0 {
		if err := SetBacklog(listener, backlog); err != nil {
			Logger.Warningf("Failed to set listen backlog %d, using the OS default: %v", backlog, err)
		}
	}
	t.listener = listener
	t.readyMu.Do(func() { close(t.ready) })

	// closing the listener is the only way to unblock Accept
	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})
	defer stop()

	Logger.Infof("Listening for %s connections on %s", t.connector.GetName(), listener.Addr())

	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				Logger.Infof("Listener on %s closed", listener.Addr())
				return nil
			}

			// e.g. too many open files, back off instead of spinning
			backoff = nextBackoff(backoff)
			Logger.Errorf("Accept error: %v (retrying in %s)", err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		backoff = 0

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Warningf("Failed to apply socket options for %s: %v", conn.RemoteAddr(), err)
		}

		if err := t.dispatch(conn); err != nil {
			Logger.Errorf("Failed to dispatch connection from %s: %v", conn.RemoteAddr(), err)
			_ = conn.Close()
		}
	}
}

func (t *serverTransport) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-t.ready:
		return t.listener.Addr(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
