package client

import (
	"context"
	"github.com/ValentinKolb/rFS/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
)

// IFileClient drives requests against a file server. Every call opens a new connection
// for exactly one request and reports how it went as a common.Outcome. Failures of any
// kind (transport, protocol, server, local file I/O and panics) are returned as ERROR
// outcomes, no method returns an error or panics.
//
// All methods are safe for concurrent use.
type IFileClient interface {
	// Execute sends a prepared request. The outcome size is the payload size of an
	// upload or the received file size of a get.
	Execute(ctx context.Context, req *common.Request) common.Outcome

	// List returns the names of all files on the server
	List(ctx context.Context) ([]string, common.Outcome)

	// Get downloads a file into the configured download directory, using the file name
	// returned by the server. The elapsed time includes writing the file.
	Get(ctx context.Context, name string) common.Outcome

	// Upload sends the local file at path, stored on the server as `as` (or the base
	// name of path if `as` is empty). The elapsed time includes reading the file.
	Upload(ctx context.Context, path, as string) common.Outcome

	// Delete removes a file from the server
	Delete(ctx context.Context, name string) common.Outcome

	// Metrics returns the registry with the request timers and byte meters of this client
	Metrics() gometrics.Registry
}
