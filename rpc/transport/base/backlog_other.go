//go:build !unix

package base

import "net"

// SetBacklog is a no-op where the socket API is not available, the OS default backlog applies
func SetBacklog(net.Listener, int) error {
	return nil
}
