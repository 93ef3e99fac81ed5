package loadtest

import (
	"context"
	"github.com/ValentinKolb/rFS/rpc/client"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/ValentinKolb/rFS/rpc/server"
	"github.com/ValentinKolb/rFS/rpc/transport/tcp"
	"path/filepath"
	"testing"
	"time"
)

func TestScenariosAgainstServer(t *testing.T) {
	if testing.Short() {
		t.Skip("moves a few megabytes over loopback")
	}

	s := server.NewRPCServer(common.ServerConfig{
		PoolSize:      1,
		PoolKind:      common.PoolKindThread,
		Storage:       common.StorageDisk,
		DataDir:       t.TempDir(),
		TimeoutSecond: 30,
		Transport:     common.ServerTransportConfig{Endpoint: "127.0.0.1:0"},
		LogLevel:      "error",
	}, tcp.NewTCPServerTransport())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve returned: %v", err)
		}
	}()

	addrCtx, addrCancel := context.WithTimeout(ctx, 10*time.Second)
	defer addrCancel()
	addr, err := s.Addr(addrCtx)
	if err != nil {
		t.Fatal(err)
	}

	c, err := client.NewRPCFileClient(common.ClientConfig{
		DownloadDir: t.TempDir(),
		Transport:   common.ClientTransportConfig{Endpoint: addr.String()},
	}, tcp.NewTCPClientTransport())
	if err != nil {
		t.Fatal(err)
	}

	filesDir := t.TempDir()
	sizes := []string{"64KB", "1MB"}
	if _, err := GenerateFiles(filesDir, sizes, 1); err != nil {
		t.Fatal(err)
	}

	csvPath := filepath.Join(t.TempDir(), "stress_test_results.csv")
	results, err := RunScenarios(context.Background(), c, ScenarioConfig{
		Sizes:      sizes,
		Operations: []Operation{OpUpload, OpDownload},
		ClientPool: 5,
		ServerPool: 1,
		FilesDir:   filesDir,
		CSVPath:    csvPath,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range results {
		if r.SuccessCount != 5 || r.FailureCount != 0 {
			t.Errorf("%s", r)
		}
		size, _ := ParseSize(r.SizeLabel)
		if r.ThroughputBytesPerSecond <= 0 || r.TotalElapsedSeconds <= 0 {
			t.Errorf("%s: no throughput for %d byte files", r, size)
		}
	}
	if rows := readCSV(t, csvPath); len(rows) != 1+len(results) {
		t.Errorf("report has %d rows, want %d", len(rows), 1+len(results))
	}
}
