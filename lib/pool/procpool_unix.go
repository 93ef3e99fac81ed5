//go:build unix

package pool

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/util"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sys/unix"
	"io"
	"net"
	"os"
	"os/exec"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	// controlFD is the descriptor number of the control socket in a worker
	// (the first entry of exec.Cmd.ExtraFiles)
	controlFD = 3

	// opHandle precedes every passed connection, ackByte confirms it was handled
	opHandle byte = 'H'
	ackByte  byte = 'A'

	stopTimeout = 5 * time.Second
)

// errWorkerLost marks dispatch failures caused by the worker process, not the connection
var errWorkerLost = errors.New("worker process lost")

// NewProcessPool creates a pool of size worker processes started by factory. Each
// accepted connection is handed to an idle worker by passing its file descriptor over
// a unix socketpair (SCM_RIGHTS). A worker handles one connection at a time and
// acknowledges it when done. Workers that die are restarted on the next connection.
func NewProcessPool(size int, factory CommandFactory) (IWorkerPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}
	if factory == nil {
		return nil, fmt.Errorf("no worker command given")
	}
	return &processPool{
		size:     size,
		factory:  factory,
		queue:    util.NewQueue[net.Conn](),
		children: xsync.NewMapOf[int, *worker](),
	}, nil
}

type processPool struct {
	size     int
	factory  CommandFactory
	queue    *util.Queue[net.Conn]
	children *xsync.MapOf[int, *worker] // slot -> running worker
	slots    sync.WaitGroup
	started  atomic.Bool
	closed   sync.Once
	restarts atomic.Int64
}

// worker is the parent's handle on one worker process
type worker struct {
	slot   int
	cmd    *exec.Cmd
	ctrl   *net.UnixConn
	exited chan struct{}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see pool.IWorkerPool)
// --------------------------------------------------------------------------

func (p *processPool) Start(_ context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("pool already started")
	}

	// spawn everything up front so a broken worker command fails the start
	for slot := 0; slot < p.size; slot++ {
		w, err := p.spawn(slot)
		if err != nil {
			p.stopChildren()
			return err
		}
		p.children.Store(slot, w)
	}

	Logger.Infof("Started process pool with %d workers", p.size)
	for slot := 0; slot < p.size; slot++ {
		p.slots.Add(1)
		go p.serveSlot(slot)
	}
	return nil
}

func (p *processPool) Submit(conn net.Conn) error {
	if !p.started.Load() {
		return ErrNotStarted
	}
	if !p.queue.Push(conn) {
		return ErrPoolClosed
	}
	return nil
}

func (p *processPool) Len() int {
	return p.queue.Len()
}

func (p *processPool) Size() int {
	return p.size
}

func (p *processPool) Close() error {
	p.closed.Do(func() {
		p.queue.Close()
		p.slots.Wait()
		p.stopChildren()
		Logger.Infof("Process pool stopped (%d worker restarts)", p.restarts.Load())
	})
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods (parent side)
// --------------------------------------------------------------------------

// serveSlot feeds queued connections to the worker of one slot, one at a time
func (p *processPool) serveSlot(slot int) {
	defer p.slots.Done()

	for conn := range p.queue.Recv() {
		w, ok := p.children.Load(slot)
		if !ok {
			nw, err := p.spawn(slot)
			if err != nil {
				Logger.Errorf("Failed to restart worker %d: %v", slot, err)
				_ = conn.Close()
				continue
			}
			p.children.Store(slot, nw)
			p.restarts.Add(1)
			w = nw
		}

		if err := w.dispatch(conn); err != nil {
			if !errors.Is(err, errWorkerLost) {
				Logger.Warningf("Failed to hand connection to worker %d: %v", slot, err)
				continue
			}
			Logger.Errorf("Worker %d (pid %d) failed, the connection is lost: %v", slot, w.pid(), err)
			w.stop(0)
			p.children.Delete(slot)
		}
	}
}

// spawn starts the worker process of a slot, connected by a fresh socketpair
func (p *processPool) spawn(slot int) (*worker, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create control socket: %v", err)
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])

	parentFile := os.NewFile(uintptr(fds[0]), "rfs-control")
	childFile := os.NewFile(uintptr(fds[1]), "rfs-control-worker")
	// FileConn and the child both hold their own copies
	defer parentFile.Close()
	defer childFile.Close()

	c, err := net.FileConn(parentFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open control socket: %v", err)
	}
	ctrl := c.(*net.UnixConn)

	cmd := p.factory()
	cmd.ExtraFiles = []*os.File{childFile}
	env := cmd.Env
	if env == nil {
		env = os.Environ()
	}
	cmd.Env = append(env, WorkerEnv+"="+strconv.Itoa(slot))
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		_ = ctrl.Close()
		return nil, fmt.Errorf("failed to start worker %d: %v", slot, err)
	}

	w := &worker{
		slot:   slot,
		cmd:    cmd,
		ctrl:   ctrl,
		exited: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		Logger.Debugf("Worker %d (pid %d) exited: %v", slot, cmd.Process.Pid, err)
		close(w.exited)
	}()

	Logger.Debugf("Started worker %d (pid %d)", slot, cmd.Process.Pid)
	return w, nil
}

func (p *processPool) stopChildren() {
	var wg sync.WaitGroup
	p.children.Range(func(slot int, w *worker) bool {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.stop(stopTimeout)
		}()
		return true
	})
	wg.Wait()
	p.children.Clear()
}

// dispatch passes the descriptor of conn to the worker and waits for the ack.
// The parent's copy of the connection is always closed.
func (w *worker) dispatch(conn net.Conn) error {
	defer conn.Close()

	sc, ok := conn.(syscall.Conn)
	if !ok {
		return fmt.Errorf("connection type %T has no file descriptor", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return fmt.Errorf("failed to access descriptor: %v", err)
	}

	var sendErr error
	if err := raw.Control(func(fd uintptr) {
		_, _, sendErr = w.ctrl.WriteMsgUnix([]byte{opHandle}, unix.UnixRights(int(fd)), nil)
	}); err != nil {
		return fmt.Errorf("failed to access descriptor: %v", err)
	}
	if sendErr != nil {
		return fmt.Errorf("%w: failed to pass connection: %v", errWorkerLost, sendErr)
	}

	var ack [1]byte
	if _, err := io.ReadFull(w.ctrl, ack[:]); err != nil {
		return fmt.Errorf("%w: no acknowledgement: %v", errWorkerLost, err)
	}
	if ack[0] != ackByte {
		return fmt.Errorf("%w: unexpected acknowledgement %q", errWorkerLost, ack[0])
	}
	return nil
}

// stop closes the control socket, which makes a healthy worker exit, and kills the
// process if it is still running after timeout
func (w *worker) stop(timeout time.Duration) {
	_ = w.ctrl.Close()

	if timeout > 0 {
		select {
		case <-w.exited:
			return
		case <-time.After(timeout):
			Logger.Warningf("Worker %d (pid %d) did not exit, killing it", w.slot, w.pid())
		}
	}
	_ = w.cmd.Process.Kill()
	<-w.exited
}

func (w *worker) pid() int {
	if w.cmd.Process == nil {
		return 0
	}
	return w.cmd.Process.Pid
}

// --------------------------------------------------------------------------
// Worker Side
// --------------------------------------------------------------------------

// WorkerControlConn opens the control socket inherited from the pool
func WorkerControlConn() (*net.UnixConn, error) {
	f := os.NewFile(controlFD, "rfs-control")
	if f == nil {
		return nil, fmt.Errorf("no control socket inherited")
	}
	defer f.Close()

	c, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open control socket: %v", err)
	}
	uc, ok := c.(*net.UnixConn)
	if !ok {
		_ = c.Close()
		return nil, fmt.Errorf("control socket is a %T, not a unix socket", c)
	}
	return uc, nil
}

// ServeWorker receives connections from the pool over ctrl and runs handler for each of
// them, one at a time. It returns nil when the pool closes the control socket or ctx is done.
func ServeWorker(ctx context.Context, ctrl *net.UnixConn, handler ConnHandler) error {
	stop := context.AfterFunc(ctx, func() {
		_ = ctrl.Close()
	})
	defer stop()
	defer ctrl.Close()

	buf := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(4))

	Logger.Debugf("Worker process %d ready", os.Getpid())
	for {
		n, oobn, _, _, err := ctrl.ReadMsgUnix(buf, oob)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to receive connection: %v", err)
		}
		if n == 0 && oobn == 0 {
			// the pool closed the control socket
			return nil
		}

		conn, err := connFromRights(oob[:oobn])
		if err != nil {
			Logger.Errorf("Invalid message from pool: %v", err)
		} else {
			runIsolated(handler, conn)
		}

		if _, err := ctrl.Write([]byte{ackByte}); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to acknowledge connection: %v", err)
		}
	}
}

// connFromRights rebuilds a net.Conn from the first descriptor in a control message
func connFromRights(oob []byte) (net.Conn, error) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("failed to parse control message: %v", err)
	}

	for i := range msgs {
		fds, err := unix.ParseUnixRights(&msgs[i])
		if err != nil || len(fds) == 0 {
			continue
		}
		for _, extra := range fds[1:] {
			_ = unix.Close(extra)
		}

		f := os.NewFile(uintptr(fds[0]), "rfs-conn")
		conn, err := net.FileConn(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to open passed connection: %v", err)
		}
		return conn, nil
	}
	return nil, fmt.Errorf("no file descriptor received")
}

func runIsolated(handler ConnHandler, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Recovered from panic: %v\n%s", r, debug.Stack())
			_ = conn.Close()
		}
	}()
	handler(conn)
}
