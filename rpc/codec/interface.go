package codec

import "github.com/ValentinKolb/rFS/rpc/common"

// IRPCCodec converts requests and responses to and from their wire form.
// The frame terminator is not part of the encoded bytes, framing is done by the transport.
type IRPCCodec interface {
	// EncodeRequest serializes a request into its text form
	// It fails with common.ErrInvalidName if the name cannot be carried by the protocol
	EncodeRequest(req *common.Request) ([]byte, error)
	// DecodeRequest parses the text form of a request
	// It fails with an error wrapping common.ErrProtocol for malformed input
	DecodeRequest(b []byte) (*common.Request, error)
	// EncodeResponse serializes a response into its JSON form
	EncodeResponse(resp *common.Response) ([]byte, error)
	// DecodeResponse parses the JSON form of a response to a request with the given verb
	// It fails with an error wrapping common.ErrProtocol for malformed input
	DecodeResponse(verb common.Verb, b []byte) (*common.Response, error)
}
