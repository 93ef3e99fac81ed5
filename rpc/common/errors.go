package common

import (
	"errors"
	"fmt"
)

// Error classes shared by the server and the client. Concrete errors wrap one of
// these with fmt.Errorf("%w: ...") so callers can classify them with errors.Is.
var (
	// ErrTransport marks failures to connect, send or receive (including timeouts and
	// a peer closing before the frame terminator arrived)
	ErrTransport = errors.New("transport error")
	// ErrProtocol marks unparseable requests or responses
	ErrProtocol = errors.New("protocol error")
	// ErrLocalIO marks client side failures reading the file to upload or writing a download
	ErrLocalIO = errors.New("local io error")
	// ErrInvalidName is returned for file names the protocol cannot carry safely
	ErrInvalidName = fmt.Errorf("%w: invalid file name", ErrProtocol)
)
