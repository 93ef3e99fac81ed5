package server

import (
	"context"
	"github.com/ValentinKolb/rFS/lib/store"
	"github.com/ValentinKolb/rFS/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle executes a decoded request against the store and returns the response.
	// Failures are reported as an ERROR response, Handle never returns nil.
	Handle(ctx context.Context, req *common.Request, store store.IFileStore) (resp *common.Response)
}
