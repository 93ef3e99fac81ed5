// Package util provides small concurrency building blocks used by the server.
//
// Queue is an unbounded FIFO queue with non-blocking, lock-free Push and channel
// based delivery (Recv). Multiple goroutines may receive concurrently, which makes it
// the hand-off between the accept loop and a fixed-size worker pool: accepting never
// waits for a free worker and each idle worker picks up the next queued connection.
//
// Features and Guarantees:
//
//   - Unbounded Size: the queue grows as needed, limited only by available memory
//   - Non-blocking producers: Push returns immediately, even without receivers
//   - FIFO per producer: items of one producer are delivered in push order
//   - Draining Close: items queued before Close are still delivered, then the channel closes
//   - O(1) Len for gauges
package util
