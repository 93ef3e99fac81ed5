package file

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/cmd/util"
	"github.com/ValentinKolb/rFS/lib/loadtest"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:   "perf",
		Short: "Load test an rFS server",
		Long: `Runs one scenario per file size and operation against the server. Every scenario starts --client-pool concurrent uploads or downloads of the same file and appends one row to the CSV report.

The test files are read from --files-dir and are named after their size (e.g. 10MB.dat), use "rfs file gen" to create them. Downloads expect the files to exist on the server, run an upload scenario first or use --operation=all.`,
		PreRunE: processPerfConfig,
		RunE:    run,
	}
	genCmd = &cobra.Command{
		Use:   "gen",
		Short: "Generates the test files used by perf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := processPerfConfig(cmd, args); err != nil {
				return err
			}
			paths, err := loadtest.GenerateFiles(viper.GetString("files-dir"), perfConfig.Sizes, viper.GetInt64("seed"))
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}

	perfConfig    = loadtest.ScenarioConfig{}
	clientMetrics = false
)

func init() {
	// add flags
	key := "operation"
	perfTestCmd.Flags().String(key, "all", util.WrapString("The operation to test (upload, download, all)"))
	key = "client-pool"
	perfTestCmd.Flags().Int(key, 5, util.WrapString("Number of concurrent requests per scenario"))
	key = "server-pool"
	perfTestCmd.Flags().Int(key, 1, util.WrapString("The pool size of the server, only written to the report"))
	key = "csv"
	perfTestCmd.Flags().String(key, "stress_test_results.csv", util.WrapString("Path of the CSV report, rows are appended (empty disables the report)"))
	key = "client-metrics"
	perfTestCmd.Flags().Bool(key, false, util.WrapString("Print the request timers and byte meters of the client after the run"))

	for _, c := range []*cobra.Command{perfTestCmd, genCmd} {
		key = "sizes"
		c.Flags().String(key, strings.Join(loadtest.DefaultSizes, ","), util.WrapString("Comma separated file sizes (e.g. 10MB,50MB,100MB)"))
		key = "files-dir"
		c.Flags().String(key, ".", util.WrapString("Directory of the test files"))
	}

	key = "seed"
	genCmd.Flags().Int64(key, 1, util.WrapString("Seed of the random file content"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfConfig.Sizes = perfConfig.Sizes[:0]
	for _, s := range strings.Split(viper.GetString("sizes"), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := loadtest.ParseSize(s); err != nil {
			return err
		}
		perfConfig.Sizes = append(perfConfig.Sizes, s)
	}
	if len(perfConfig.Sizes) == 0 {
		return fmt.Errorf("no file sizes given")
	}

	perfConfig.FilesDir = viper.GetString("files-dir")
	if cmd.Name() != "perf" {
		return nil
	}

	ops, err := loadtest.ParseOperations(viper.GetString("operation"))
	if err != nil {
		return err
	}
	perfConfig.Operations = ops
	perfConfig.ClientPool = viper.GetInt("client-pool")
	perfConfig.ServerPool = viper.GetInt("server-pool")
	perfConfig.CSVPath = viper.GetString("csv")
	clientMetrics = viper.GetBool("client-metrics")

	if perfConfig.ClientPool < 1 {
		return fmt.Errorf("client pool size must be at least 1, got %d", perfConfig.ClientPool)
	}
	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Load testing tool for rFS servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Sizes: %s\n", strings.Join(perfConfig.Sizes, ", "))
	fmt.Printf("Operations: %v\n", perfConfig.Operations)
	fmt.Printf("Client Pool: %d, Server Pool: %d\n", perfConfig.ClientPool, perfConfig.ServerPool)
	if perfConfig.CSVPath != "" {
		fmt.Printf("Report: %s\n", perfConfig.CSVPath)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("starting tests...")
	start := time.Now()

	results, err := loadtest.RunScenarios(ctx, fileClient, perfConfig, printReport)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Done, %d scenarios in %s\n", len(results), time.Since(start).Round(time.Millisecond))
	for _, r := range results {
		fmt.Println("  " + r.String())
	}

	if clientMetrics {
		fmt.Println()
		fmt.Println("Client metrics:")
		gometrics.WriteOnce(fileClient.Metrics(), os.Stdout)
	}
	return nil
}

func printReport(r loadtest.ScenarioReport) {
	fmt.Println()
	fmt.Println(r.Result.String())
	fmt.Printf("  latency: %s\n", r.Latency)
	fmt.Printf("  host before: %s\n", r.HostBefore)
	fmt.Printf("  host after:  %s\n", r.HostAfter)
	for _, o := range r.Outcomes {
		if !o.Ok() {
			fmt.Printf("  %s\n", o)
		}
	}
}
