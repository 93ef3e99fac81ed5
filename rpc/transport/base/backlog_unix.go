//go:build unix

package base

import (
	"fmt"
	"golang.org/x/sys/unix"
	"net"
	"syscall"
)

// SetBacklog changes the accept backlog of a listening socket. Calling listen(2) again on a
// socket that already listens only updates its backlog, the kernel caps it at somaxconn.
func SetBacklog(l net.Listener, backlog int) error {
	sc, ok := l.(syscall.Conn)
	if !ok {
		return fmt.Errorf("listener %T does not expose its socket", l)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return err
	}

	var listenErr error
	if err := rc.Control(func(fd uintptr) {
		listenErr = unix.Listen(int(fd), backlog)
	}); err != nil {
		return err
	}
	return listenErr
}
