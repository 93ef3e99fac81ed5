package cmd

import (
	"fmt"
	"github.com/ValentinKolb/rFS/cmd/file"
	"github.com/ValentinKolb/rFS/cmd/serve"
	"github.com/ValentinKolb/rFS/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.1.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "rfs",
		Short: "remote file store",
		Long: fmt.Sprintf(`rFS (v%s)

A remote file store speaking a small text protocol over TCP.
Clients list, upload, download and delete whole files, the
server handles every connection on a pool of goroutines or
worker processes.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rFS",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rFS v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(file.FileCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
