package store

import (
	"context"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Factory is a function type that creates the storage adapter used by a server.
// This is used to abstract the creation of the backend from the server implementation.
type Factory func() (IFileStore, error)

// IFileStore is the storage adapter behind the file server. Files are identified by
// flat names (no directories). Implementations must be safe for concurrent use and
// serialize operations on the same name.
// All methods return a *Error on failure so callers can inspect the return code.
type IFileStore interface {
	// List returns the names of all stored files in lexicographic order.
	List(ctx context.Context) (names []string, err error)
	// Read returns the complete content of a file. Fails with RetCNotFound if it does not exist.
	Read(ctx context.Context, name string) (data []byte, err error)
	// Write creates or replaces a file. Readers never observe a partially written file.
	Write(ctx context.Context, name string, data []byte) (err error)
	// Delete removes a file. Fails with RetCNotFound if it does not exist.
	Delete(ctx context.Context, name string) (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is makes errors.Is match any *Error with the same code, e.g.
// errors.Is(err, store.ErrNotFound)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Sentinel errors for errors.Is, one per return code
var (
	ErrNotFound    = &Error{Code: RetCNotFound}
	ErrIO          = &Error{Code: RetCIOError}
	ErrInvalidName = &Error{Code: RetCInvalidName}
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess       RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                // 1: Operation failed due to an internal error.
	RetCNotFound                     // 2: The file does not exist.
	RetCIOError                      // 3: The backend failed to read or write the file.
	RetCInvalidName                  // 4: The name does not denote a flat file.
)

// String returns a human-readable name of the return code
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "success"
	case RetCInternalError:
		return "internal error"
	case RetCNotFound:
		return "not found"
	case RetCIOError:
		return "io error"
	case RetCInvalidName:
		return "invalid name"
	default:
		return fmt.Sprintf("unknown code %d", uint64(c))
	}
}
