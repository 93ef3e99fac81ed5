package pool

import (
	"context"
	"errors"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"os/exec"
)

var Logger = logger.GetLogger("pool")

var (
	// ErrPoolClosed is returned by Submit after Close
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrNotStarted is returned by Submit before Start
	ErrNotStarted = errors.New("worker pool is not started")
)

// ConnHandler handles one connection and closes it when done
type ConnHandler func(conn net.Conn)

// CommandFactory creates the command that starts one worker process of a process pool.
// The started program must call WorkerControlConn and ServeWorker.
type CommandFactory func() *exec.Cmd

// WorkerEnv is set in the environment of every worker process (value: its slot number)
const WorkerEnv = "RFS_WORKER"

// IWorkerPool executes accepted connections on a fixed number of workers.
// Submitted connections are queued without bound, so Submit never waits for a free worker.
type IWorkerPool interface {
	// Start launches the workers. It must be called exactly once before Submit.
	Start(ctx context.Context) error
	// Submit enqueues a connection. The pool owns the connection afterwards
	// (unless an error is returned).
	Submit(conn net.Conn) error
	// Len returns the number of connections waiting for a worker
	Len() int
	// Size returns the number of workers
	Size() int
	// Close stops accepting work, lets the workers finish everything already queued
	// and releases them
	Close() error
}
