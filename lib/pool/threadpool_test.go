package pool

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// lineEchoHandler answers the first line of a connection with prefix + line
func lineEchoHandler(prefix string) ConnHandler {
	return func(conn net.Conn) {
		defer conn.Close()
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return
		}
		_, _ = fmt.Fprintf(conn, "%s%s", prefix, line)
	}
}

// roundTrip writes one line over conn and returns the answer line
func roundTrip(conn net.Conn, line string) (string, error) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return "", err
	}
	return bufio.NewReader(conn).ReadString('\n')
}

func TestThreadPoolServesAllConnections(t *testing.T) {
	p, err := NewThreadPool(1, lineEchoHandler("echo:"))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	// more clients than workers: the extra ones wait in the queue
	const clients = 3
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		client, server := net.Pipe()
		if err := p.Submit(server); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := roundTrip(client, fmt.Sprintf("client-%d", i))
			if err != nil {
				t.Errorf("client %d: %v", i, err)
				return
			}
			if want := fmt.Sprintf("echo:client-%d\n", i); got != want {
				t.Errorf("client %d got %q, want %q", i, got, want)
			}
		}(i)
	}
	wg.Wait()
}

func TestThreadPoolLimitsConcurrency(t *testing.T) {
	const size = 3
	var running, peak atomic.Int32

	p, _ := NewThreadPool(size, func(conn net.Conn) {
		defer conn.Close()
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
	})
	_ = p.Start(context.Background())

	for i := 0; i < 12; i++ {
		_, server := net.Pipe()
		if err := p.Submit(server); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	// Close drains the queue before returning
	_ = p.Close()

	if got := peak.Load(); got > size {
		t.Errorf("peak concurrency %d exceeds pool size %d", got, size)
	}
	if got := peak.Load(); got < 1 {
		t.Errorf("no connection was handled")
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", p.Len())
	}
}

func TestThreadPoolSurvivesPanics(t *testing.T) {
	var handled atomic.Int32
	p, _ := NewThreadPool(1, func(conn net.Conn) {
		defer handled.Add(1)
		if handled.Load() == 0 {
			panic("boom")
		}
		_ = conn.Close()
	})
	_ = p.Start(context.Background())

	for i := 0; i < 3; i++ {
		_, server := net.Pipe()
		_ = p.Submit(server)
	}
	_ = p.Close()

	if got := handled.Load(); got != 3 {
		t.Errorf("handled %d connections, want 3", got)
	}
}

func TestThreadPoolLifecycle(t *testing.T) {
	if _, err := NewThreadPool(0, lineEchoHandler("")); err == nil {
		t.Error("pool size 0 should be rejected")
	}
	if _, err := NewThreadPool(1, nil); err == nil {
		t.Error("nil handler should be rejected")
	}

	p, _ := NewThreadPool(2, lineEchoHandler(""))
	if p.Size() != 2 {
		t.Errorf("Size() = %d, want 2", p.Size())
	}

	_, server := net.Pipe()
	if err := p.Submit(server); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Submit before Start = %v, want ErrNotStarted", err)
	}

	_ = p.Start(context.Background())
	if err := p.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	_ = p.Close()
	_ = p.Close()

	if err := p.Submit(server); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit after Close = %v, want ErrPoolClosed", err)
	}
}
