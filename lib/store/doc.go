// Package store defines the storage adapter of the file server: a flat namespace of
// named files that can be listed, read, written and deleted.
//
// The package focuses on:
//   - A unified interface (IFileStore) that the request handler dispatches to
//   - Pluggable backends through the Factory pattern
//   - Unified error reporting with typed return codes
//
// Key Components:
//
//   - IFileStore Interface: The abstraction every backend implements. Operations on the
//     same name are serialized by the backend, so a Read never observes a half written
//     file and concurrent Writes of the same name leave one complete version behind.
//
//   - Error System: Failures are reported as *Error carrying a RetCode and a message.
//     The sentinel values ErrNotFound, ErrIO and ErrInvalidName match any *Error with
//     the same code through errors.Is. The message of a not found error always contains
//     the text "not found" which clients rely on.
//
// Implementations:
//
//	- Disk Store (diskstore): Files in a flat directory. Writes go to a temporary
//	  file that is renamed into place, per-name read/write locks serialize access
//	  within a process. Available in the "github.com/ValentinKolb/rFS/lib/store/diskstore" package.
//
//	- Memory Store (memstore): Files kept in a concurrent map. Useful for tests and
//	  ephemeral servers, not shared between worker processes.
//	  Available in the "github.com/ValentinKolb/rFS/lib/store/memstore" package.
package store
