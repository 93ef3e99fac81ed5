package loadtest

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
)

// CSVHeader is the first row of a report file
var CSVHeader = []string{
	"Test No", "Operation", "Size", "Client Pool", "Server Pool",
	"Total Time (s)", "Throughput (B/s)", "Success Client", "Fail Client",
}

// AppendCSV appends one row per result to the report at path. The header is written
// only if the file is new or empty, so repeated runs extend the same report.
func AppendCSV(path string, results ...AggregateResult) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open report: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to open report: %v", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(CSVHeader); err != nil {
			return fmt.Errorf("failed to write report header: %v", err)
		}
	}
	for _, r := range results {
		if err := w.Write(csvRow(r)); err != nil {
			return fmt.Errorf("failed to write report row: %v", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write report: %v", err)
	}
	return f.Sync()
}

// csvRow formats a result: total time rounded to two decimals, throughput truncated to
// whole bytes per second
func csvRow(r AggregateResult) []string {
	return []string{
		strconv.Itoa(r.TestIndex),
		string(r.Operation),
		r.SizeLabel,
		strconv.Itoa(r.ClientPoolSize),
		strconv.Itoa(r.ServerPoolSize),
		strconv.FormatFloat(math.Round(r.TotalElapsedSeconds*100)/100, 'f', 2, 64),
		strconv.FormatInt(int64(r.ThroughputBytesPerSecond), 10),
		strconv.Itoa(r.SuccessCount),
		strconv.Itoa(r.FailureCount),
	}
}
