package client

import (
	"bytes"
	"context"
	"errors"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/ValentinKolb/rFS/rpc/server"
	"github.com/ValentinKolb/rFS/rpc/transport/tcp"
	gometrics "github.com/rcrowley/go-metrics"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// startServer runs a thread-pool server with two workers on a free port until the test ends
func startServer(t *testing.T) string {
	t.Helper()
	return startServerWithPool(t, 2)
}

func startServerWithPool(t *testing.T, poolSize int) string {
	t.Helper()
	config := common.ServerConfig{
		PoolSize:      poolSize,
		PoolKind:      common.PoolKindThread,
		Storage:       common.StorageDisk,
		DataDir:       t.TempDir(),
		TimeoutSecond: 10,
		Transport:     common.ServerTransportConfig{Endpoint: "127.0.0.1:0"},
		LogLevel:      "error",
	}
	s := server.NewRPCServer(config, tcp.NewTCPServerTransport())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Serve(ctx); err != nil {
			t.Errorf("Serve returned: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	addrCtx, addrCancel := context.WithTimeout(ctx, 10*time.Second)
	defer addrCancel()
	addr, err := s.Addr(addrCtx)
	if err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	return addr.String()
}

func newClient(t *testing.T, addr string) (IFileClient, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := NewRPCFileClient(common.ClientConfig{
		TimeoutSecond: 10,
		DownloadDir:   dir,
		Transport:     common.ClientTransportConfig{Endpoint: addr},
	}, tcp.NewTCPClientTransport())
	if err != nil {
		t.Fatal(err)
	}
	return c, dir
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadGetDelete(t *testing.T) {
	c, downloads := newClient(t, startServer(t))
	ctx := context.Background()

	data := bytes.Repeat([]byte{0, 1, 2, 3, '\r', '\n'}, 50_000)
	src := writeTempFile(t, "local.bin", data)

	out := c.Upload(ctx, src, "remote file.bin")
	if !out.Ok() {
		t.Fatalf("Upload failed: %s", out.Error)
	}
	if out.SizeBytes != int64(len(data)) || out.Filename != "remote file.bin" || out.Elapsed <= 0 {
		t.Errorf("unexpected upload outcome %+v", out)
	}

	names, out := c.List(ctx)
	if !out.Ok() || !reflect.DeepEqual(names, []string{"remote file.bin"}) {
		t.Errorf("List = %v (%s)", names, out.Error)
	}

	out = c.Get(ctx, "remote file.bin")
	if !out.Ok() {
		t.Fatalf("Get failed: %s", out.Error)
	}
	if out.SizeBytes != int64(len(data)) {
		t.Errorf("Get size = %d, want %d", out.SizeBytes, len(data))
	}
	got, err := os.ReadFile(filepath.Join(downloads, "remote file.bin"))
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("downloaded content differs from the uploaded content")
	}

	if out := c.Delete(ctx, "remote file.bin"); !out.Ok() {
		t.Errorf("Delete failed: %s", out.Error)
	}
	out = c.Delete(ctx, "remote file.bin")
	if out.Ok() || !strings.Contains(out.Error, "not found") {
		t.Errorf("second Delete = %+v, want a 'not found' error", out)
	}
}

func TestUploadUsesBaseName(t *testing.T) {
	c, _ := newClient(t, startServer(t))
	src := writeTempFile(t, "10KB.dat", make([]byte, 10*1024))

	out := c.Upload(context.Background(), src, "")
	if !out.Ok() || out.Filename != "10KB.dat" {
		t.Errorf("Upload = %+v, want it stored as 10KB.dat", out)
	}
}

func TestGetMissingFile(t *testing.T) {
	c, downloads := newClient(t, startServer(t))

	out := c.Get(context.Background(), "missingfile.dat")
	if out.Ok() {
		t.Fatal("Get of a missing file succeeded")
	}
	if !strings.Contains(out.Error, "not found") {
		t.Errorf("error %q does not mention 'not found'", out.Error)
	}
	if out.SizeBytes != 0 {
		t.Errorf("failed outcome has size %d", out.SizeBytes)
	}

	entries, _ := os.ReadDir(downloads)
	if len(entries) != 0 {
		t.Errorf("failed download left %d files behind", len(entries))
	}
}

func TestLocalFileMissing(t *testing.T) {
	c, _ := newClient(t, startServer(t))

	out := c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.dat"), "")
	if out.Ok() {
		t.Fatal("Upload of a missing local file succeeded")
	}
	if !strings.Contains(out.Error, common.ErrLocalIO.Error()) {
		t.Errorf("error %q is not reported as local io error", out.Error)
	}
}

func TestInvalidNamesAreNotSent(t *testing.T) {
	c, _ := newClient(t, startServer(t))
	src := writeTempFile(t, "ok.dat", []byte("x"))

	for _, name := range []string{"a||b", "../x", "dir/file"} {
		if out := c.Upload(context.Background(), src, name); out.Ok() {
			t.Errorf("Upload as %q succeeded", name)
		}
		if out := c.Get(context.Background(), name); out.Ok() {
			t.Errorf("Get %q succeeded", name)
		}
	}
}

func TestServerUnavailable(t *testing.T) {
	// a closed listener leaves a port nobody listens on
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	c, _ := newClient(t, addr)
	out := c.Execute(context.Background(), common.NewListRequest())
	if out.Ok() {
		t.Fatal("request to a closed port succeeded")
	}
	if !strings.Contains(out.Error, common.ErrTransport.Error()) {
		t.Errorf("error %q is not reported as transport error", out.Error)
	}
}

func TestExecuteNilRequest(t *testing.T) {
	c, _ := newClient(t, "127.0.0.1:1")
	if out := c.Execute(context.Background(), nil); out.Ok() {
		t.Error("nil request succeeded")
	}
}

func TestConcurrentClients(t *testing.T) {
	c, _ := newClient(t, startServer(t))
	src := writeTempFile(t, "payload.dat", bytes.Repeat([]byte("rfs"), 10_000))

	const n = 8
	var wg sync.WaitGroup
	outcomes := make([]common.Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = c.Upload(context.Background(), src, "")
		}(i)
	}
	wg.Wait()

	for i, out := range outcomes {
		if !out.Ok() {
			t.Errorf("upload %d failed: %s", i, out.Error)
		}
	}

	timer, ok := c.Metrics().Get("requests.upload").(gometrics.Timer)
	if !ok {
		t.Fatal("upload timer not registered")
	}
	if timer.Count() != n {
		t.Errorf("upload timer count = %d, want %d", timer.Count(), n)
	}
}

func TestQueuedUploadsWaitForTheWorker(t *testing.T) {
	addr := startServerWithPool(t, 1)

	// the zero config sets no deadlines, like the CLI default
	c, err := NewRPCFileClient(common.ClientConfig{
		DownloadDir: t.TempDir(),
		Transport:   common.ClientTransportConfig{Endpoint: addr},
	}, tcp.NewTCPClientTransport())
	if err != nil {
		t.Fatal(err)
	}
	src := writeTempFile(t, "8MB.dat", bytes.Repeat([]byte{7}, 8<<20))

	const n = 6
	var wg sync.WaitGroup
	outcomes := make([]common.Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = c.Upload(context.Background(), src, "")
		}(i)
	}
	wg.Wait()

	for i, out := range outcomes {
		if !out.Ok() || out.SizeBytes != 8<<20 {
			t.Errorf("upload %d behind a single worker = %+v", i, out)
		}
	}
}

// failingTransport returns a fixed response or error for every exchange
type failingTransport struct {
	resp []byte
	err  error
}

func (f *failingTransport) Configure(common.ClientConfig) error { return nil }

func (f *failingTransport) Exchange(context.Context, []byte) ([]byte, error) {
	return f.resp, f.err
}

func TestMalformedResponses(t *testing.T) {
	tests := map[string]*failingTransport{
		"not json":        {resp: []byte("hello")},
		"empty":           {resp: []byte{}},
		"unknown status":  {resp: []byte(`{"status":"MAYBE","data":"x"}`)},
		"transport error": {err: errors.New("boom")},
	}

	for name, tr := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := NewRPCFileClient(common.ClientConfig{DownloadDir: t.TempDir()}, tr)
			if err != nil {
				t.Fatal(err)
			}
			if out := c.Get(context.Background(), "file.dat"); out.Ok() || out.Error == "" {
				t.Errorf("Get = %+v, want an ERROR outcome with a description", out)
			}
		})
	}
}

func TestServerProvidedNameIsValidated(t *testing.T) {
	tr := &failingTransport{resp: []byte(`{"status":"OK","data":{"filename":"../evil","file":"aGk="}}`)}
	dir := t.TempDir()
	c, _ := NewRPCFileClient(common.ClientConfig{DownloadDir: dir}, tr)

	if out := c.Get(context.Background(), "evil"); out.Ok() {
		t.Error("a path name from the server was accepted")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "evil")); err == nil {
		t.Error("file was written outside the download dir")
	}
}
