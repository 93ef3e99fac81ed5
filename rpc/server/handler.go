package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/store"
	"github.com/ValentinKolb/rFS/rpc/codec"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/ValentinKolb/rFS/rpc/transport/base"
	"io"
	"net"
	"runtime/debug"
	"time"
)

// connectionHandler serves exactly one request per connection. It holds no per-request
// state, so one instance is shared by all workers of a pool.
type connectionHandler struct {
	codec    codec.IRPCCodec
	adapter  IRPCServerAdapter
	store    store.IFileStore
	metrics  *serverMetrics
	timeout  time.Duration
	maxFrame int
}

func newConnectionHandler(config common.ServerConfig, s store.IFileStore, m *serverMetrics) *connectionHandler {
	return &connectionHandler{
		codec:    codec.NewTextCodec(),
		adapter:  NewFileStoreServerAdapter(),
		store:    s,
		metrics:  m,
		timeout:  config.Timeout(),
		maxFrame: config.MaxFrameBytes(),
	}
}

// handle reads one framed request, answers it and closes the connection.
// An empty request is closed without a response.
func (h *connectionHandler) handle(conn net.Conn) {
	defer conn.Close()

	if h.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(h.timeout))
	}

	frame, err := base.ReadFrame(conn, h.maxFrame)
	switch {
	case errors.Is(err, io.EOF):
		Logger.Debugf("Connection from %s closed without a request", conn.RemoteAddr())
		return
	case errors.Is(err, base.ErrFrameTooLarge):
		Logger.Warningf("Rejected request from %s: %v", conn.RemoteAddr(), err)
		h.respond(conn, common.VerbUnknown, time.Now(), 0,
			common.NewErrorResponse(fmt.Sprintf("request exceeds the maximum size of %d bytes", h.maxFrame)))
		return
	case err != nil:
		Logger.Warningf("Failed to read request from %s: %v", conn.RemoteAddr(), err)
		return
	}

	if len(bytes.TrimSpace(frame)) == 0 {
		return
	}

	start := time.Now()
	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	verb, resp := h.process(ctx, frame)
	h.respond(conn, verb, start, len(frame)+len(base.Terminator), resp)
}

// process decodes the request and runs it against the store. A panic is turned into
// an ERROR response.
func (h *connectionHandler) process(ctx context.Context, frame []byte) (verb common.Verb, resp *common.Response) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Recovered from panic while handling %s: %v\n%s", verb, r, debug.Stack())
			resp = common.NewErrorResponse(fmt.Sprintf("internal server error: %v", r))
		}
	}()

	req, err := h.codec.DecodeRequest(frame)
	if err != nil {
		Logger.Debugf("Invalid request %q: %v", summarize(frame), err)
		return common.VerbUnknown, common.NewErrorResponse(err.Error())
	}
	verb = req.Verb
	Logger.Debugf("Received command: %s", summarize(frame))

	resp = h.adapter.Handle(ctx, req, h.store)
	if resp == nil {
		resp = common.NewErrorResponse("handler: no response")
	}
	return verb, resp
}

// respond encodes and sends the response, failures are logged only since the
// connection is closed afterwards anyway
func (h *connectionHandler) respond(conn net.Conn, verb common.Verb, start time.Time, in int, resp *common.Response) {
	out, err := h.codec.EncodeResponse(resp)
	if err != nil {
		Logger.Errorf("Failed to encode %s response: %v", verb, err)
		resp = common.NewErrorResponse(fmt.Sprintf("failed to encode response: %v", err))
		if out, err = h.codec.EncodeResponse(resp); err != nil {
			return
		}
	}

	if err := base.WriteFrame(conn, out); err != nil {
		Logger.Warningf("Failed to send %s response to %s: %v", verb, conn.RemoteAddr(), err)
	}

	if h.metrics != nil {
		h.metrics.observeRequest(verb, resp.Status, start, in, len(out)+len(base.Terminator))
	}
}

// summarize shortens a raw request for logging, upload payloads are cut off
func summarize(frame []byte) string {
	const limit = 64
	line := bytes.TrimSpace(frame)
	if len(line) <= limit {
		return string(line)
	}
	return fmt.Sprintf("%s... (%d bytes)", line[:limit], len(line))
}
