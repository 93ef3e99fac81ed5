package transport

import (
	"context"
	"github.com/ValentinKolb/rFS/rpc/common"
	"net"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// DispatchFunc hands an accepted connection over to whoever executes it (usually a worker pool).
// It must not block on in-flight work. The callee owns the connection afterwards and is
// responsible for closing it. If an error is returned the transport closes the connection.
type DispatchFunc func(conn net.Conn) error

// IRPCServerTransport is the interface for the listening side of the transport layer
type IRPCServerTransport interface {
	// RegisterDispatcher registers the function each accepted connection is passed to
	RegisterDispatcher(dispatch DispatchFunc)
	// Listen binds the configured endpoint and accepts connections until ctx is done.
	// It returns nil after a shutdown and an error if the endpoint cannot be bound.
	Listen(ctx context.Context, config common.ServerConfig) error
	// Addr blocks until the transport is listening and returns the bound address
	Addr(ctx context.Context) (net.Addr, error)
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the dialing side of the transport layer
type IRPCClientTransport interface {
	// Configure initializes the transport with the given configuration
	Configure(config common.ClientConfig) error
	// Exchange opens a new connection, sends one framed request, reads the framed
	// response and closes the connection again
	Exchange(ctx context.Context, req []byte) (resp []byte, err error)
}
