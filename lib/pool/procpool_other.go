//go:build !unix

package pool

import (
	"context"
	"errors"
	"net"
)

// ErrProcessPoolUnsupported is returned on platforms without descriptor passing
var ErrProcessPoolUnsupported = errors.New("process pools require a unix platform")

// NewProcessPool is not available on this platform, use a thread pool
func NewProcessPool(int, CommandFactory) (IWorkerPool, error) {
	return nil, ErrProcessPoolUnsupported
}

// WorkerControlConn is not available on this platform
func WorkerControlConn() (net.Conn, error) {
	return nil, ErrProcessPoolUnsupported
}

// ServeWorker is not available on this platform
func ServeWorker(context.Context, net.Conn, ConnHandler) error {
	return ErrProcessPoolUnsupported
}
