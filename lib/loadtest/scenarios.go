package loadtest

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/rpc/common"
	"path/filepath"
)

// ScenarioConfig describes a series of scenarios: every size label is run with every
// operation, in the given order
type ScenarioConfig struct {
	Sizes      []string
	Operations []Operation
	ClientPool int
	// ServerPool is only recorded in the report, the server is configured separately
	ServerPool int
	// FilesDir holds the local test files (see FileName)
	FilesDir string
	// CSVPath is the report file, empty disables the report
	CSVPath string
}

// ScenarioReport is everything measured for one scenario
type ScenarioReport struct {
	Result     AggregateResult
	Latency    LatencyStats
	HostBefore HostSample
	HostAfter  HostSample
	Outcomes   []common.Outcome
}

// RunScenarios runs one scenario per size label and operation, numbered from 1, and
// appends each result to the report as soon as it is known. onDone (optional) is called
// after every scenario. It stops early only if ctx is done or the report cannot be written.
func RunScenarios(ctx context.Context, driver IDriver, cfg ScenarioConfig, onDone func(ScenarioReport)) ([]AggregateResult, error) {
	if cfg.ClientPool < 1 {
		return nil, fmt.Errorf("client pool size must be at least 1, got %d", cfg.ClientPool)
	}
	if len(cfg.Operations) == 0 {
		return nil, fmt.Errorf("no operations given")
	}

	results := make([]AggregateResult, 0, len(cfg.Sizes)*len(cfg.Operations))
	testNo := 1
	for _, size := range cfg.Sizes {
		for _, op := range cfg.Operations {
			if err := ctx.Err(); err != nil {
				return results, err
			}

			scenario := Scenario{
				TestIndex:      testNo,
				Operation:      op,
				SizeLabel:      size,
				ClientPoolSize: cfg.ClientPool,
				ServerPoolSize: cfg.ServerPool,
			}
			testNo++

			report := runScenario(ctx, driver, scenario, filepath.Join(cfg.FilesDir, FileName(size)))
			results = append(results, report.Result)
			Logger.Infof("Done test #%d - %s %s C:%d S:%d", scenario.TestIndex, op, size, cfg.ClientPool, cfg.ServerPool)

			if cfg.CSVPath != "" {
				if err := AppendCSV(cfg.CSVPath, report.Result); err != nil {
					return results, err
				}
			}
			if onDone != nil {
				onDone(report)
			}
		}
	}
	return results, nil
}

func runScenario(ctx context.Context, driver IDriver, s Scenario, file string) ScenarioReport {
	var report ScenarioReport
	var err error

	if report.HostBefore, err = SampleHost(ctx); err != nil {
		Logger.Debugf("Host sampling incomplete: %v", err)
	}

	report.Outcomes = Run(ctx, driver, s.Operation, file, s.ClientPoolSize)

	if report.HostAfter, err = SampleHost(ctx); err != nil {
		Logger.Debugf("Host sampling incomplete: %v", err)
	}

	report.Result = Aggregate(s, report.Outcomes)
	report.Latency = Latencies(report.Outcomes)
	for _, o := range report.Outcomes {
		if !o.Ok() {
			Logger.Warningf("Test #%d: %s", s.TestIndex, o)
		}
	}
	return report
}
