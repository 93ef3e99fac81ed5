// Package memstore implements store.IFileStore in memory on top of xsync.MapOf.
// Data is lost when the process exits and is not visible to other processes.
package memstore
