// Package tcp implements the TCP transport of the file server and its client. It
// provides the TCP specific connectors for the base package: listening, dialing and
// the socket options of TCPConf and SocketConf (no delay, keep-alive, linger and
// buffer sizes).
package tcp
