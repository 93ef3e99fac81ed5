/*
Package loadtest implements the load harness: it runs one operation (upload or
download of a test file) many times at once through an IDriver and aggregates the
outcomes into a report row.

  - Run: exactly poolSize invocations on poolSize goroutines, outcomes in completion order
  - Aggregate: success and failure counts, summed elapsed time and throughput
  - Latencies: latency distribution of a scenario (gonum/stat)
  - RunScenarios: every size label times every operation, numbered from 1, with each
    result appended to a CSV report (AppendCSV)
  - GenerateFiles: creates the test files ("10MB.dat", ...)
  - SampleHost: host load and process memory around each scenario (gopsutil)

The total time of a scenario is the sum of the per-outcome elapsed times, not the wall
clock time of the scenario.
*/
package loadtest
