// Package cmd implements the command-line interface of rFS. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - file: Commands for file operations (list, get, upload, delete) and the load test (perf, gen)
//   - serve: Commands for starting and configuring the rFS server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See rfs -help for a list of all commands.
package cmd
