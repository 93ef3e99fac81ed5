package loadtest

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"strings"
)

var Logger = logger.GetLogger("loadtest")

// IDriver is the part of the client the harness drives (client.IFileClient implements it)
type IDriver interface {
	// Upload sends the local file at path, stored as `as` (base name of path if empty)
	Upload(ctx context.Context, path, as string) common.Outcome
	// Get downloads the named file
	Get(ctx context.Context, name string) common.Outcome
}

// Operation is what every invocation of a scenario does
type Operation string

const (
	OpUpload   Operation = "upload"
	OpDownload Operation = "download"
)

// ParseOperation parses a single operation name
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpUpload, OpDownload:
		return op, nil
	default:
		return "", fmt.Errorf("invalid operation %q (expected one of: upload, download)", s)
	}
}

// ParseOperations parses "upload", "download" or "all" (upload then download)
func ParseOperations(s string) ([]Operation, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return []Operation{OpUpload, OpDownload}, nil
	}
	op, err := ParseOperation(s)
	if err != nil {
		return nil, err
	}
	return []Operation{op}, nil
}
