// Package unix implements a transport over Unix domain sockets for clients running on
// the same machine as the server. The endpoint is the socket path, an existing socket
// file is replaced on listen.
package unix
