// Package transport defines the interfaces of the transport layer used by the
// file server and its client. Every message is a single frame terminated by
// "\r\n\r\n" and every connection carries exactly one request and one response.
//
// Key Components:
//
//   - IRPCServerTransport: Binds an endpoint, accepts connections and hands each one
//     to a DispatchFunc (normally the Submit method of a worker pool). Accepting never
//     waits for in-flight work.
//
//   - IRPCClientTransport: Opens a fresh connection per request, exchanges one frame
//     in each direction and closes the connection.
//
// Implementations live in the tcp and unix packages, both built on the connector
// based implementations of the base package.
package transport
