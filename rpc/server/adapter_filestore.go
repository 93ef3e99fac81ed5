package server

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/store"
	"github.com/ValentinKolb/rFS/rpc/common"
)

func NewFileStoreServerAdapter() IRPCServerAdapter {
	return &fileStoreServerAdapterImpl{}
}

type fileStoreServerAdapterImpl struct{}

func (adapter *fileStoreServerAdapterImpl) Handle(ctx context.Context, req *common.Request, store store.IFileStore) *common.Response {
	// Check for nil store
	if store == nil {
		return common.NewErrorResponse("handler: store is nil")
	}
	if req == nil {
		return common.NewErrorResponse("handler: request is nil")
	}

	// Handle different verbs
	switch req.Verb {
	case common.VerbList:
		names, err := store.List(ctx)
		if err != nil {
			return common.NewErrorResponse(fmt.Sprintf("failed to list files: %v", err))
		}
		return common.NewListResponse(names)
	case common.VerbGet:
		data, err := store.Read(ctx, req.Name)
		if err != nil {
			return common.NewErrorResponse(fmt.Sprintf("failed to get %q: %v", req.Name, err))
		}
		return common.NewGetResponse(req.Name, data)
	case common.VerbUpload:
		if err := store.Write(ctx, req.Name, req.Payload); err != nil {
			return common.NewErrorResponse(fmt.Sprintf("failed to upload %q: %v", req.Name, err))
		}
		return common.NewAckResponse(fmt.Sprintf("file %s uploaded", req.Name))
	case common.VerbDelete:
		if err := store.Delete(ctx, req.Name); err != nil {
			return common.NewErrorResponse(fmt.Sprintf("failed to delete %q: %v", req.Name, err))
		}
		return common.NewAckResponse(fmt.Sprintf("file %s deleted", req.Name))
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("unknown command %q", req.Verb),
		)
	}
}
