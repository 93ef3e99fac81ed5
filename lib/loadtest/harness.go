package loadtest

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/rpc/common"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"path/filepath"
	"runtime/debug"
	"sort"
	"time"
)

// Run invokes op on file exactly poolSize times, all at once on a pool of poolSize
// goroutines, and returns the outcomes in completion order. Uploads read the local file
// at path file, downloads fetch the remote file with the base name of file.
// Every invocation yields exactly one outcome, a failing or panicking driver included.
func Run(ctx context.Context, driver IDriver, op Operation, file string, poolSize int) []common.Outcome {
	if poolSize < 1 {
		return nil
	}

	results := make(chan common.Outcome, poolSize)

	// the error of the group is never set, a failed invocation is an outcome
	g := new(errgroup.Group)
	g.SetLimit(poolSize)
	for i := 0; i < poolSize; i++ {
		g.Go(func() error {
			results <- invoke(ctx, driver, op, file)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	outcomes := make([]common.Outcome, 0, poolSize)
	for o := range results {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func invoke(ctx context.Context, driver IDriver, op Operation, file string) (out common.Outcome) {
	name := filepath.Base(file)
	verb := common.VerbUnknown
	switch op {
	case OpUpload:
		verb = common.VerbUpload
	case OpDownload:
		verb = common.VerbGet
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Recovered from panic in %s of %s: %v\n%s", op, name, r, debug.Stack())
			out = common.NewErrorOutcome(verb, name, time.Since(start), fmt.Sprintf("driver panic: %v", r))
		}
	}()

	switch op {
	case OpUpload:
		return driver.Upload(ctx, file, "")
	case OpDownload:
		return driver.Get(ctx, name)
	default:
		return common.NewErrorOutcome(verb, name, 0, fmt.Sprintf("unknown operation %q", op))
	}
}

// --------------------------------------------------------------------------
// Aggregation
// --------------------------------------------------------------------------

// Scenario identifies one run of the harness in a report
type Scenario struct {
	TestIndex      int
	Operation      Operation
	SizeLabel      string
	ClientPoolSize int
	ServerPoolSize int
}

// AggregateResult summarizes the outcomes of one scenario, it is one row of the report
type AggregateResult struct {
	Scenario
	// TotalElapsedSeconds is the sum of the elapsed times of all outcomes (not wall clock)
	TotalElapsedSeconds float64
	// ThroughputBytesPerSecond is the number of bytes moved successfully per TotalElapsedSeconds
	ThroughputBytesPerSecond float64
	SuccessCount             int
	FailureCount             int
}

// Aggregate computes the result of a scenario. Failed outcomes add no bytes, but their
// elapsed time counts when it is positive. The throughput is 0 if the total time is 0.
func Aggregate(s Scenario, outcomes []common.Outcome) AggregateResult {
	r := AggregateResult{Scenario: s}

	var totalBytes int64
	for _, o := range outcomes {
		if o.Ok() {
			r.SuccessCount++
			totalBytes += o.SizeBytes
		} else {
			r.FailureCount++
		}
		if sec := o.ElapsedSeconds(); sec > 0 {
			r.TotalElapsedSeconds += sec
		}
	}

	if r.TotalElapsedSeconds > 0 {
		r.ThroughputBytesPerSecond = float64(totalBytes) / r.TotalElapsedSeconds
	}
	return r
}

func (r AggregateResult) String() string {
	return fmt.Sprintf("#%d %-8s %-6s C:%-3d S:%-3d total %.2fs, %.0f B/s, %d ok, %d failed",
		r.TestIndex, r.Operation, r.SizeLabel, r.ClientPoolSize, r.ServerPoolSize,
		r.TotalElapsedSeconds, r.ThroughputBytesPerSecond, r.SuccessCount, r.FailureCount)
}

// LatencyStats describes the distribution of the elapsed times of a scenario (in seconds)
type LatencyStats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	P50    float64
	P95    float64
	P99    float64
}

// Latencies computes the latency distribution over all outcomes with a positive elapsed time
func Latencies(outcomes []common.Outcome) LatencyStats {
	xs := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if sec := o.ElapsedSeconds(); sec > 0 {
			xs = append(xs, sec)
		}
	}
	if len(xs) == 0 {
		return LatencyStats{}
	}

	// Quantile needs sorted input
	sort.Float64s(xs)

	ls := LatencyStats{
		Count: len(xs),
		Min:   xs[0],
		Max:   xs[len(xs)-1],
		P50:   stat.Quantile(0.50, stat.Empirical, xs, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, xs, nil),
		P99:   stat.Quantile(0.99, stat.Empirical, xs, nil),
	}
	if len(xs) > 1 {
		ls.Mean, ls.StdDev = stat.MeanStdDev(xs, nil)
	} else {
		ls.Mean = xs[0]
	}
	return ls
}

func (l LatencyStats) String() string {
	if l.Count == 0 {
		return "no latencies"
	}
	return fmt.Sprintf("n=%d mean=%.3fs sd=%.3fs min=%.3fs p50=%.3fs p95=%.3fs p99=%.3fs max=%.3fs",
		l.Count, l.Mean, l.StdDev, l.Min, l.P50, l.P95, l.P99, l.Max)
}
