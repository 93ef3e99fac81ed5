// Package rpc provides the remote side of rFS: the wire protocol between file
// clients and the file server, and both ends of it.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including requests, responses, outcomes, configuration structures, and logging.
//
//   - codec: The text encoding of requests (LIST, GET <name>, UPLOAD <name>||<bytes>,
//     DELETE <name>) and the JSON encoding of responses.
//
//   - transport: Network communication abstractions. Every connection carries exactly
//     one request frame and one response frame, both terminated by "\r\n\r\n".
//     Implementations exist for TCP and Unix sockets.
//
//   - client: The file client, which turns every call into exactly one outcome.
//
//   - server: The file server, which hands accepted connections to a worker pool and
//     dispatches every decoded request to the storage adapter.
package rpc
