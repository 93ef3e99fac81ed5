package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is a single element of the linked list behind Queue
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// Queue is an unbounded FIFO queue. Any number of goroutines may Push, and any
// number of goroutines may receive from the channel returned by Recv.
//
// Push never blocks: items are appended to a lock-free linked list, and a single
// forwarding goroutine moves them into an unbuffered channel as receivers become
// ready. This lets an accept loop hand work to a fixed set of workers without ever
// waiting for them.
type Queue[T any] struct {
	head    atomic.Pointer[node[T]] // sentinel, head.next is the oldest item
	tail    atomic.Pointer[node[T]]
	out     chan T
	closed  atomic.Bool
	length  atomic.Int64
	forward sync.WaitGroup

	mu   sync.Mutex
	cond *sync.Cond
}

// NewQueue creates an empty queue and starts its forwarding goroutine
func NewQueue[T any]() *Queue[T] {
	sentinel := &node[T]{}

	q := &Queue[T]{
		out: make(chan T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.forward.Add(1)
	go q.run()

	return q
}

// Push appends an item. It returns false if the queue is closed.
func (q *Queue[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}

	newNode := &node[T]{value: value}
	var backoff uint8

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()

		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// another producer may already have moved the tail, that is fine
				q.tail.CompareAndSwap(tailNode, newNode)
				q.length.Add(1)

				// signal under the lock so the wakeup cannot fall between the
				// forwarder's emptiness check and its Wait
				q.mu.Lock()
				q.cond.Signal()
				q.mu.Unlock()
				return true
			}
		} else {
			// help a producer that appended but has not moved the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// run forwards items into the out channel until the queue is closed and drained
func (q *Queue[T]) run() {
	defer q.forward.Done()
	defer close(q.out)

	var zero T
	for {
		head := q.head.Load()
		next := head.next.Load()

		if next != nil {
			value := next.value
			q.head.Store(next)
			q.out <- value
			q.length.Add(-1)
			next.value = zero // the node stays as sentinel, drop the reference
			continue
		}

		q.mu.Lock()
		for q.head.Load().next.Load() == nil && !q.closed.Load() {
			q.cond.Wait()
		}
		drained := q.head.Load().next.Load() == nil
		q.mu.Unlock()

		if drained {
			// closed and nothing left
			return
		}
	}
}

// Recv returns the channel items are delivered on. It is closed after Close
// once all pushed items were received.
func (q *Queue[T]) Recv() <-chan T {
	return q.out
}

// Close prevents further pushes. Items already queued are still delivered.
// Producers must be stopped before Close, a Push racing with it may be lost.
func (q *Queue[T]) Close() {
	q.closed.Store(true)

	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
}

// IsClosed returns true if the queue is closed
func (q *Queue[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns the number of items pushed but not yet received, including an item
// the forwarder is currently offering on the channel
func (q *Queue[T]) Len() int {
	return int(q.length.Load())
}
