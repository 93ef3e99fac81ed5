// Package server implements the file server: the connection handler that answers one
// request per connection, the adapter that maps requests onto a store.IFileStore and
// the bootstrap that wires storage, worker pool, transport and metrics together.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for server adapters, with the
//     Handle method that processes a decoded request against a store.IFileStore.
//
//   - NewFileStoreServerAdapter: Adapter translating LIST, GET, UPLOAD and DELETE to
//     store calls. Store failures become ERROR responses carrying the error text, so a
//     missing file is reported as "... not found".
//
//   - NewRPCServer: Creates a server for a configuration and transport. Serve runs it
//     until the context is cancelled.
//
//   - ServeWorker: Main loop of a worker process started by the process pool
//     (`rfs serve worker`).
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  PoolSize:  4,
//	  PoolKind:  common.PoolKindThread,
//	  Storage:   common.StorageDisk,
//	  DataDir:   "files",
//	  Transport: common.ServerTransportConfig{Endpoint: "0.0.0.0:7777"},
//	  LogLevel:  "info",
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport())
//	if err := s.Serve(ctx); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Every connection carries exactly one request and one response. Requests that cannot
// be decoded are answered with an ERROR response, a connection closed without sending
// anything is closed without a response.
//
// Thread Safety:
//
//	The handler is shared by all workers of a pool and keeps no per-request state.
//	Serve must be called only once per server.
package server
