package client

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/rpc/codec"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/ValentinKolb/rFS/rpc/transport"
	gometrics "github.com/rcrowley/go-metrics"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
)

// NewRPCFileClient creates a new file client
// The function takes a config and a transport as parameters
// It returns a IFileClient and an error if the transport cannot be configured
func NewRPCFileClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
) (IFileClient, error) {

	// Configure the transport
	if err := transport.Configure(config); err != nil {
		return nil, err
	}

	downloadDir := config.DownloadDir
	if downloadDir == "" {
		downloadDir = "."
	}

	registry := gometrics.NewRegistry()
	c := &rpcFileClient{
		config:        config,
		downloadDir:   downloadDir,
		transport:     transport,
		codec:         codec.NewTextCodec(),
		registry:      registry,
		timers:        map[common.Verb]gometrics.Timer{},
		bytesSent:     gometrics.NewRegisteredMeter("bytes.sent", registry),
		bytesReceived: gometrics.NewRegisteredMeter("bytes.received", registry),
		failures:      gometrics.NewRegisteredCounter("requests.failed", registry),
	}
	for _, verb := range []common.Verb{common.VerbList, common.VerbGet, common.VerbUpload, common.VerbDelete} {
		c.timers[verb] = gometrics.NewRegisteredTimer("requests."+strings.ToLower(verb.String()), registry)
	}

	return c, nil
}

type rpcFileClient struct {
	config      common.ClientConfig
	downloadDir string
	transport   transport.IRPCClientTransport
	codec       codec.IRPCCodec

	registry      gometrics.Registry
	timers        map[common.Verb]gometrics.Timer // read only after construction
	bytesSent     gometrics.Meter
	bytesReceived gometrics.Meter
	failures      gometrics.Counter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see client.IFileClient)
// --------------------------------------------------------------------------

func (c *rpcFileClient) Execute(ctx context.Context, req *common.Request) (out common.Outcome) {
	start := time.Now()
	if req == nil {
		return c.fail(common.VerbUnknown, "", start, fmt.Errorf("%w: nil request", common.ErrProtocol))
	}
	defer c.recoverOutcome(req.Verb, req.Name, start, &out)

	resp, err := c.invoke(ctx, req)
	if err != nil {
		return c.fail(req.Verb, req.Name, start, err)
	}

	var size int64
	switch req.Verb {
	case common.VerbUpload:
		size = int64(len(req.Payload))
	case common.VerbGet:
		size = int64(len(resp.File.Data))
	}
	return c.succeed(req.Verb, req.Name, size, start)
}

func (c *rpcFileClient) List(ctx context.Context) (names []string, out common.Outcome) {
	start := time.Now()
	defer c.recoverOutcome(common.VerbList, "", start, &out)

	resp, err := c.invoke(ctx, common.NewListRequest())
	if err != nil {
		return nil, c.fail(common.VerbList, "", start, err)
	}
	return resp.Names, c.succeed(common.VerbList, "", 0, start)
}

func (c *rpcFileClient) Get(ctx context.Context, name string) (out common.Outcome) {
	start := time.Now()
	defer c.recoverOutcome(common.VerbGet, name, start, &out)

	resp, err := c.invoke(ctx, common.NewGetRequest(name))
	if err != nil {
		return c.fail(common.VerbGet, name, start, err)
	}

	// the server decides the name, it must not point outside the download dir
	if err := codec.ValidateName(resp.File.Name); err != nil {
		return c.fail(common.VerbGet, name, start, fmt.Errorf("server returned an unusable file name: %w", err))
	}
	path := filepath.Join(c.downloadDir, resp.File.Name)
	if err := writeFileAtomic(path, resp.File.Data); err != nil {
		return c.fail(common.VerbGet, name, start, fmt.Errorf("%w: %v", common.ErrLocalIO, err))
	}

	Logger.Debugf("Downloaded %s to %s", name, path)
	return c.succeed(common.VerbGet, resp.File.Name, int64(len(resp.File.Data)), start)
}

func (c *rpcFileClient) Upload(ctx context.Context, path, as string) (out common.Outcome) {
	start := time.Now()
	name := as
	if name == "" {
		name = filepath.Base(path)
	}
	defer c.recoverOutcome(common.VerbUpload, name, start, &out)

	data, err := os.ReadFile(path)
	if err != nil {
		return c.fail(common.VerbUpload, name, start, fmt.Errorf("%w: %v", common.ErrLocalIO, err))
	}

	if _, err := c.invoke(ctx, common.NewUploadRequest(name, data)); err != nil {
		return c.fail(common.VerbUpload, name, start, err)
	}
	return c.succeed(common.VerbUpload, name, int64(len(data)), start)
}

func (c *rpcFileClient) Delete(ctx context.Context, name string) (out common.Outcome) {
	start := time.Now()
	defer c.recoverOutcome(common.VerbDelete, name, start, &out)

	if _, err := c.invoke(ctx, common.NewDeleteRequest(name)); err != nil {
		return c.fail(common.VerbDelete, name, start, err)
	}
	return c.succeed(common.VerbDelete, name, 0, start)
}

func (c *rpcFileClient) Metrics() gometrics.Registry {
	return c.registry
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// remoteError carries the description of an ERROR response unchanged
type remoteError struct {
	msg string
}

func (e *remoteError) Error() string {
	return e.msg
}

// invoke sends one request and turns an ERROR response into a remoteError
func (c *rpcFileClient) invoke(ctx context.Context, req *common.Request) (*common.Response, error) {
	resp, sent, received, err := invokeRPCRequest(ctx, req, c.transport, c.codec)
	c.bytesSent.Mark(int64(sent))
	c.bytesReceived.Mark(int64(received))
	if err != nil {
		return nil, err
	}
	if !resp.IsOK() {
		return nil, &remoteError{msg: resp.Message}
	}
	return resp, nil
}

func (c *rpcFileClient) succeed(verb common.Verb, name string, size int64, start time.Time) common.Outcome {
	elapsed := time.Since(start)
	if t, ok := c.timers[verb]; ok {
		t.Update(elapsed)
	}
	return common.NewSuccessOutcome(verb, name, size, elapsed)
}

func (c *rpcFileClient) fail(verb common.Verb, name string, start time.Time, err error) common.Outcome {
	elapsed := time.Since(start)
	c.failures.Inc(1)
	Logger.Debugf("%s %s failed after %s: %v", verb, name, elapsed, err)
	return common.NewErrorOutcome(verb, name, elapsed, err.Error())
}

// recoverOutcome turns a panic into an ERROR outcome, it must be deferred directly
func (c *rpcFileClient) recoverOutcome(verb common.Verb, name string, start time.Time, out *common.Outcome) {
	if r := recover(); r != nil {
		Logger.Errorf("Recovered from panic during %s %s: %v\n%s", verb, name, r, debug.Stack())
		*out = c.fail(verb, name, start, fmt.Errorf("client panic: %v", r))
	}
}

// writeFileAtomic writes data to a temp file next to path and renames it into place,
// so a failed download never leaves a partial file under the final name
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".rfs-download-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
