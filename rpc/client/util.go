package client

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/rpc/codec"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/ValentinKolb/rFS/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// invokeRPCRequest is a helper function used by the client to send requests
// It takes a request, a transport layer and a codec as parameters
// It returns the decoded response and the number of bytes sent and received. An ERROR
// response is not an error here, errors are reserved for failures to get any response.
func invokeRPCRequest(
	ctx context.Context,
	req *common.Request,
	transport transport.IRPCClientTransport,
	codec codec.IRPCCodec,
) (resp *common.Response, sent, received int, err error) {
	// Encode the request
	reqBytes, err := codec.EncodeRequest(req)
	if err != nil {
		return nil, 0, 0, err
	}

	// Send the request
	respBytes, err := transport.Exchange(ctx, reqBytes)
	if err != nil {
		return nil, len(reqBytes), 0, err
	}

	// Decode the response
	resp, err = codec.DecodeResponse(req.Verb, respBytes)
	if err != nil {
		return nil, len(reqBytes), len(respBytes), fmt.Errorf("invalid %s response: %w", req.Verb, err)
	}

	return resp, len(reqBytes), len(respBytes), nil
}
