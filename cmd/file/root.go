package file

import (
	"github.com/ValentinKolb/rFS/cmd/util"
	"github.com/ValentinKolb/rFS/rpc/client"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	fileClient client.IFileClient

	// FileCommands represents the file command group
	FileCommands = &cobra.Command{
		Use:               "file",
		Short:             "Perform operations on a remote rFS server",
		PersistentPreRunE: setupFileClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the file command
	util.SetupRPCClientFlags(FileCommands)

	// Add subcommands
	FileCommands.AddCommand(listCmd)
	FileCommands.AddCommand(getCmd)
	FileCommands.AddCommand(uploadCmd)
	FileCommands.AddCommand(deleteCmd)
	FileCommands.AddCommand(perfTestCmd)
	FileCommands.AddCommand(genCmd)
}

// setupFileClient initializes the RPC file client
func setupFileClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	config := util.GetClientConfig()

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the file client
	fileClient, err = client.NewRPCFileClient(*config, t)

	return err
}
