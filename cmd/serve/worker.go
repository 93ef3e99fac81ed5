package serve

import (
	"context"
	"github.com/ValentinKolb/rFS/rpc/server"
	"github.com/spf13/cobra"
	"os/signal"
	"syscall"
)

// workerCmd is started by the process pool of `rfs serve`, never by hand. It inherits the
// storage and logging flags of the serve command.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Run a process-pool worker (internal)",
	Hidden: true,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		// the parent validated the configuration, a worker has no pool of its own
		return readConfig(cmd)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.ServeWorker(ctx, *serveCmdConfig)
	},
}
