package server

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/pool"
	"github.com/ValentinKolb/rFS/lib/store"
	"github.com/ValentinKolb/rFS/lib/store/diskstore"
	"github.com/ValentinKolb/rFS/lib/store/memstore"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/ValentinKolb/rFS/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sync/errgroup"
	"net"
	"os"
	"os/exec"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server
// It takes a config and transport as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//	)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
) *rpcServer {
	return &rpcServer{
		config:        config,
		transport:     transport,
		metrics:       newServerMetrics(),
		workerCommand: selfWorkerCommand(config),
	}
}

type rpcServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	metrics   *serverMetrics

	// workerCommand starts one worker process in process-pool mode
	workerCommand pool.CommandFactory
}

// Serve sets up storage and the worker pool and serves connections until ctx is done.
// On shutdown the listener is closed first, then queued connections are drained and
// the workers are stopped.
func (s *rpcServer) Serve(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}
	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	workers, err := s.createPool()
	if err != nil {
		return err
	}
	if err := workers.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	s.metrics.observePool(workers)

	// the accept loop only enqueues, it never waits for a worker
	s.transport.RegisterDispatcher(func(conn net.Conn) error {
		s.metrics.dispatched.Inc()
		return workers.Submit(conn)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.transport.Listen(gctx, s.config)
	})
	if s.config.MetricsEndpoint != "" {
		g.Go(func() error {
			return s.metrics.serve(gctx, s.config.MetricsEndpoint)
		})
	}
	err = g.Wait()

	// the listener is closed at this point, so no more connections are submitted
	if cerr := workers.Close(); cerr != nil && err == nil {
		err = cerr
	}
	Logger.Infof("RPC Server stopped")
	return err
}

// Addr returns the address the server listens on, once it does
func (s *rpcServer) Addr(ctx context.Context) (net.Addr, error) {
	return s.transport.Addr(ctx)
}

func (s *rpcServer) createPool() (pool.IWorkerPool, error) {
	if s.config.PoolKind == common.PoolKindProcess {
		// every worker process opens its own store on the same directory
		return pool.NewProcessPool(s.config.PoolSize, s.workerCommand)
	}

	st, err := openStore(s.config)
	if err != nil {
		return nil, err
	}
	h := newConnectionHandler(s.config, st, s.metrics)
	return pool.NewThreadPool(s.config.PoolSize, h.handle)
}

// ServeWorker is the main loop of a process-pool worker. It opens the store described by
// config and handles the connections the parent server passes to it until the parent
// closes the control socket or ctx is done.
func ServeWorker(ctx context.Context, config common.ServerConfig) error {
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return err
	}

	st, err := openStore(config)
	if err != nil {
		return err
	}

	ctrl, err := pool.WorkerControlConn()
	if err != nil {
		return fmt.Errorf("not started by a process pool: %w", err)
	}

	// a worker has no metrics endpoint, only the parent's dispatch counter and pool gauges are exported
	h := newConnectionHandler(config, st, nil)
	return pool.ServeWorker(ctx, ctrl, h.handle)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// openStore creates the storage adapter selected by the configuration
func openStore(config common.ServerConfig) (store.IFileStore, error) {
	switch config.Storage {
	case common.StorageMemory:
		Logger.Infof("Using in-memory storage")
		return memstore.NewMemStore(), nil
	case common.StorageDisk:
		s, err := diskstore.NewDiskStore(config.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		Logger.Infof("Using disk storage in %s", config.DataDir)
		return s, nil
	default:
		return nil, fmt.Errorf("invalid storage %q", config.Storage)
	}
}

// selfWorkerCommand re-executes the running binary as `serve worker`
func selfWorkerCommand(config common.ServerConfig) pool.CommandFactory {
	return func() *exec.Cmd {
		exe, err := os.Executable()
		if err != nil {
			exe = os.Args[0]
		}
		args := append([]string{"serve", "worker"}, config.WorkerArgs()...)
		return exec.Command(exe, args...)
	}
}
