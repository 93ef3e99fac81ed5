package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Transport configuration (shared by server and client)
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings, a value of 0 keeps the OS default
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options, ignored for unix sockets
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	// TCPLingerSec <= 0 keeps the OS default. A linger of 0 would reset the connection
	// on close and could drop the response before the peer read it.
	TCPLingerSec int
}

// ServerTransportConfig configures the listening side
type ServerTransportConfig struct {
	// Endpoint is a host:port for tcp or a socket path for unix
	Endpoint string
	// Backlog bounds the queue of connections the kernel holds before they are accepted,
	// 0 keeps Go's default (somaxconn)
	Backlog int
	SocketConf
	TCPConf
}

// ClientTransportConfig configures the dialing side
type ClientTransportConfig struct {
	Endpoint string
	SocketConf
	TCPConf
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// PoolKind selects how accepted connections are executed
type PoolKind string

const (
	PoolKindThread  PoolKind = "thread"
	PoolKindProcess PoolKind = "process"
)

// StorageKind selects the storage adapter backend
type StorageKind string

const (
	StorageDisk   StorageKind = "disk"
	StorageMemory StorageKind = "memory"
)

// ServerConfig holds all configuration parameters of the file server
type ServerConfig struct {
	// Worker pool
	PoolSize int
	PoolKind PoolKind

	// Storage
	Storage StorageKind
	DataDir string

	// TimeoutSecond bounds reading a request and writing a response, 0 disables deadlines
	TimeoutSecond int64
	// MaxFrameMB caps the size of a request frame, 0 means unlimited
	MaxFrameMB int

	// MetricsEndpoint is the address of the prometheus endpoint, empty disables it
	MetricsEndpoint string

	Transport ServerTransportConfig

	// Logging configuration
	LogLevel string
}

// Timeout returns the per-connection I/O timeout, 0 means no deadline
func (c *ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// MaxFrameBytes returns the frame size limit in bytes, 0 means unlimited
func (c *ServerConfig) MaxFrameBytes() int {
	return c.MaxFrameMB * 1024 * 1024
}

// Validate checks the configuration for values the server cannot run with
func (c *ServerConfig) Validate() error {
	if c.PoolSize < 1 {
		return fmt.Errorf("pool size must be at least 1, got %d", c.PoolSize)
	}
	switch c.PoolKind {
	case PoolKindThread, PoolKindProcess:
	default:
		return fmt.Errorf("invalid pool kind %q (expected one of: thread, process)", c.PoolKind)
	}
	switch c.Storage {
	case StorageDisk:
		if c.DataDir == "" {
			return fmt.Errorf("data dir is required for disk storage")
		}
	case StorageMemory:
		if c.PoolKind == PoolKindProcess {
			return fmt.Errorf("memory storage cannot be shared between worker processes, use disk storage")
		}
	default:
		return fmt.Errorf("invalid storage %q (expected one of: disk, memory)", c.Storage)
	}
	if c.TimeoutSecond < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.MaxFrameMB < 0 {
		return fmt.Errorf("max frame size must not be negative")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// WorkerArgs returns the flags a worker process needs to rebuild the parts of this
// configuration it uses (storage, deadlines, logging)
func (c *ServerConfig) WorkerArgs() []string {
	return []string{
		"--storage", string(c.Storage),
		"--data-dir", c.DataDir,
		"--timeout", strconv.FormatInt(c.TimeoutSecond, 10),
		"--max-frame-mb", strconv.Itoa(c.MaxFrameMB),
		"--log-level", c.LogLevel,
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("File Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Backlog", strconv.Itoa(c.Transport.Backlog))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	if c.MaxFrameMB > 0 {
		addField("Max Frame Size", fmt.Sprintf("%d MB", c.MaxFrameMB))
	} else {
		addField("Max Frame Size", "unlimited")
	}

	addSection("Worker Pool")
	addField("Kind", string(c.PoolKind))
	addField("Size", strconv.Itoa(c.PoolSize))

	addSection("Storage")
	addField("Backend", string(c.Storage))
	if c.Storage == StorageDisk {
		addField("Data Directory", c.DataDir)
	}

	addSection("Socket")
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("Write Buffer", formatBufferSize(c.Transport.WriteBufferSize))
	addField("Read Buffer", formatBufferSize(c.Transport.ReadBufferSize))

	addSection("Observability")
	addField("Log Level", c.LogLevel)
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	} else {
		addField("Metrics Endpoint", "disabled")
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	// TimeoutSecond bounds connecting and each read/write, 0 disables deadlines
	TimeoutSecond int
	// DownloadDir is where Get writes received files
	DownloadDir string
	// MaxFrameMB caps the size of a response frame, 0 means unlimited
	MaxFrameMB int

	Transport ClientTransportConfig
}

// Timeout returns the I/O timeout, 0 means no deadline
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// MaxFrameBytes returns the frame size limit in bytes, 0 means unlimited
func (c *ClientConfig) MaxFrameBytes() int {
	return c.MaxFrameMB * 1024 * 1024
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Download Directory", c.DownloadDir)

	addSection("Socket")
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("Write Buffer", formatBufferSize(c.Transport.WriteBufferSize))
	addField("Read Buffer", formatBufferSize(c.Transport.ReadBufferSize))

	return sb.String()
}

func formatBufferSize(size int) string {
	if size <= 0 {
		return "os default"
	}
	return fmt.Sprintf("%d KB", size/1024)
}
