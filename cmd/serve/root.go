package serve

import (
	"context"
	cmdUtil "github.com/ValentinKolb/rFS/cmd/util"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/ValentinKolb/rFS/rpc/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os/signal"
	"strings"
	"syscall"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start the rFS server",
		Long: `Start the rFS file server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is RFS_<flag> (e.g. RFS_POOL_KIND=process).

Every accepted connection carries exactly one command (LIST, GET, UPLOAD or DELETE) and is handled by one worker of the pool. With --pool-kind=thread the workers are goroutines of this process, with --pool-kind=process every worker is a child process that receives the connections over a unix socket.`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:7777", cmdUtil.WrapString("The address on which the server will listen (e.g. 0.0.0.0:7777, /tmp/rfs.sock, ...)"))

	key = "pool"
	ServeCmd.PersistentFlags().Int(key, 1, cmdUtil.WrapString("The number of workers that handle connections concurrently"))

	key = "pool-kind"
	ServeCmd.PersistentFlags().String(key, string(common.PoolKindThread), cmdUtil.WrapString("The kind of worker pool (thread, process)"))

	key = "storage"
	ServeCmd.PersistentFlags().String(key, string(common.StorageDisk), cmdUtil.WrapString("The storage backend (disk, memory). Memory storage only works with the thread pool"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "files", cmdUtil.WrapString("The directory the disk storage keeps the files in, it is created if missing"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("The timeout in seconds for reading a request and writing its response (0 disables the timeout)"))

	key = "backlog"
	ServeCmd.PersistentFlags().Int(key, 100, cmdUtil.WrapString("The maximum number of pending connections the kernel queues before they are accepted (0 keeps the OS default)"))

	key = "max-frame-mb"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The maximum size of a request in MB (0 means unlimited)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address of the prometheus /metrics endpoint (e.g. localhost:9100, empty disables it)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "transport-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (tcp only)"))

	key = "transport-tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval (in seconds, tcp only, 0 keeps the OS default)"))

	key = "transport-tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time on close (in seconds, tcp only, 0 keeps the OS default)"))

	ServeCmd.AddCommand(workerCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := readConfig(cmd); err != nil {
		return err
	}
	return serveCmdConfig.Validate()
}

// readConfig fills serveCmdConfig from viper without validating it
func readConfig(cmd *cobra.Command) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.PoolSize = viper.GetInt("pool")
	serveCmdConfig.PoolKind = common.PoolKind(strings.ToLower(viper.GetString("pool-kind")))
	serveCmdConfig.Storage = common.StorageKind(strings.ToLower(viper.GetString("storage")))
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.MaxFrameMB = viper.GetInt("max-frame-mb")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint: viper.GetString("endpoint"),
		Backlog:  viper.GetInt("backlog"),
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
		},
	}

	return nil
}

// run starts the rFS server and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serv := server.NewRPCServer(*serveCmdConfig, t)
	return serv.Serve(ctx)
}

// initConfig reads in ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(cmdUtil.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
