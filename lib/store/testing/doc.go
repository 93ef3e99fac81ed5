// Package testing provides standardised tests and benchmarks for storage adapters
// that satisfy the store.IFileStore interface.
//
// The package contains:
//   - store_testing: A conformance suite covering read/write round trips, not found
//     errors, overwrites, listing and concurrent access to the same and to distinct names
//   - store_benchmarks: Throughput of reads and writes for typical file sizes
//
// Example usage:
//
//	func Test(t *testing.T) {
//		storetesting.RunStoreTests(t, "DiskStore", func() (store.IFileStore, error) {
//			return diskstore.NewDiskStore(t.TempDir())
//		})
//	}
package testing
