// Package base provides the protocol independent part of the stream transports
// (TCP, Unix sockets). The concrete packages only contribute a connector that knows
// how to listen, dial and tune sockets.
//
// Key Components:
//
//   - WriteFrame/ReadFrame: Delimiter based framing. A frame is the message followed
//     by "\r\n\r\n". ReadFrame keeps reading in 64 KB chunks until the terminator shows
//     up, only scanning the newly read bytes, and optionally enforces a size limit.
//
//   - serverTransport: The accept loop. Every accepted connection is upgraded with the
//     connector's socket options and passed to the registered dispatcher. Accept errors
//     are logged and retried with a short backoff, closing the listener (context
//     cancellation) ends the loop.
//
//   - clientTransport: One exchange per connection. Dialing, writing and reading are
//     bounded by the configured timeout and interrupted by context cancellation.
//
// Thread Safety:
//
//	The client transport is stateless after Configure and safe for concurrent use.
//	The server transport must be started with Listen exactly once.
package base
