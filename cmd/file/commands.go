package file

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/spf13/cobra"
	"strings"
)

var (
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists the names of all files stored on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, out := fileClient.List(context.Background())
			if err := outcomeError(out); err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no files stored")
				return nil
			}
			fmt.Println(strings.Join(names, "\n"))
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [name]",
		Short: "Downloads a file into the download directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := fileClient.Get(context.Background(), args[0])
			if err := outcomeError(out); err != nil {
				return err
			}
			fmt.Printf("downloaded %s (%d bytes in %s)\n", out.Filename, out.SizeBytes, out.Elapsed)
			return nil
		},
	}
	uploadCmd = &cobra.Command{
		Use:   "upload [path]",
		Short: "Uploads a local file, it is stored under its base name unless --as is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			as, _ := cmd.Flags().GetString("as")
			out := fileClient.Upload(context.Background(), args[0], as)
			if err := outcomeError(out); err != nil {
				return err
			}
			fmt.Printf("uploaded %s (%d bytes in %s)\n", out.Filename, out.SizeBytes, out.Elapsed)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [name]",
		Short: "Deletes a file from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := outcomeError(fileClient.Delete(context.Background(), args[0])); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		},
	}
)

func init() {
	uploadCmd.Flags().String("as", "", "Remote name of the uploaded file")
}

// outcomeError turns a failed outcome into an error for cobra to print
func outcomeError(out common.Outcome) error {
	if out.Ok() {
		return nil
	}
	return fmt.Errorf("%s failed: %s", strings.TrimSpace(out.Verb.String()+" "+out.Filename), out.Error)
}
