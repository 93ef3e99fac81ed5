// Package diskstore implements store.IFileStore on a flat directory of regular files.
//
// Implementation Details:
//
//   - Atomic Replacement: Write stores the content in a temporary file inside the data
//     directory and renames it over the target. Readers in this or any other process
//     see either the old or the new content, never a mix.
//
//   - Per-Name Locking: A sync.RWMutex per file name (kept in an xsync.MapOf) serializes
//     writes and deletes of the same name while allowing parallel reads. Operations on
//     different names never wait for each other.
//
//   - Name Checks: Only flat names are accepted. Names containing path separators or
//     NUL, "." and ".." are rejected with RetCInvalidName before touching the disk.
//
// Thread Safety:
//
//	All operations are safe for concurrent use. Worker processes of a process pool
//	open their own diskstore on the same directory and rely on the atomic rename.
package diskstore
