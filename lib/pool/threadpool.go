package pool

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/util"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// NewThreadPool creates a pool of size goroutines that run handler for each submitted
// connection. At most size connections are handled at the same time.
func NewThreadPool(size int, handler ConnHandler) (IWorkerPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}
	if handler == nil {
		return nil, fmt.Errorf("no connection handler given")
	}
	return &threadPool{
		size:    size,
		handler: handler,
		queue:   util.NewQueue[net.Conn](),
	}, nil
}

type threadPool struct {
	size    int
	handler ConnHandler
	queue   *util.Queue[net.Conn]
	workers sync.WaitGroup
	started atomic.Bool
	closed  sync.Once
}

// --------------------------------------------------------------------------
// Interface Methods (docu see pool.IWorkerPool)
// --------------------------------------------------------------------------

func (p *threadPool) Start(_ context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("pool already started")
	}

	Logger.Infof("Starting thread pool with %d workers", p.size)
	for i := 0; i < p.size; i++ {
		p.workers.Add(1)
		go p.work(i)
	}
	return nil
}

func (p *threadPool) Submit(conn net.Conn) error {
	if !p.started.Load() {
		return ErrNotStarted
	}
	if !p.queue.Push(conn) {
		return ErrPoolClosed
	}
	return nil
}

func (p *threadPool) Len() int {
	return p.queue.Len()
}

func (p *threadPool) Size() int {
	return p.size
}

func (p *threadPool) Close() error {
	p.closed.Do(func() {
		p.queue.Close()
		p.workers.Wait()
		Logger.Infof("Thread pool stopped")
	})
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (p *threadPool) work(id int) {
	defer p.workers.Done()
	for conn := range p.queue.Recv() {
		p.run(id, conn)
	}
}

// run calls the handler, a panicking handler must not take the worker down with it
func (p *threadPool) run(id int, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Worker %d recovered from panic: %v\n%s", id, r, debug.Stack())
			_ = conn.Close()
		}
	}()
	p.handler(conn)
}
