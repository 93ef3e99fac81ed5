package base

import (
	"bytes"
	"errors"
	"io"
	"net"
	"slices"
)

// Terminator ends every message on the wire, in both directions
var Terminator = []byte("\r\n\r\n")

// ErrFrameTooLarge is returned by ReadFrame if the peer sends more than the allowed size
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// readChunkSize is the amount of spare buffer capacity offered to each read
const readChunkSize = 64 * 1024

// WriteFrame writes msg followed by the terminator. The writer retries partial
// writes until everything is written or an error occurs.
func WriteFrame(w io.Writer, msg []byte) error {
	b := net.Buffers{msg, Terminator}
	_, err := b.WriteTo(w)
	return err
}

// ReadFrame accumulates reads until the terminator appears and returns everything
// before it. Bytes after the terminator are discarded, there is only one message per
// connection and direction.
//
// If the peer closes the stream before the terminator arrives io.EOF is returned when
// nothing was read at all and io.ErrUnexpectedEOF otherwise. A maxSize > 0 limits the
// frame size (ErrFrameTooLarge).
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	buf := make([]byte, 0, readChunkSize)

	for {
		if cap(buf)-len(buf) < readChunkSize/4 {
			buf = slices.Grow(buf, readChunkSize)
		}

		n, err := r.Read(buf[len(buf):cap(buf)])
		if n > 0 {
			// only search the new bytes plus the tail a split terminator could start in
			start := max(0, len(buf)-len(Terminator)+1)
			buf = buf[:len(buf)+n]
			if i := bytes.Index(buf[start:], Terminator); i >= 0 {
				if maxSize > 0 && start+i > maxSize {
					return nil, ErrFrameTooLarge
				}
				return buf[:start+i], nil
			}
			if maxSize > 0 && len(buf) > maxSize+len(Terminator) {
				return nil, ErrFrameTooLarge
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(buf) == 0 {
					return nil, io.EOF
				}
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}
