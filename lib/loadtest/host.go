package loadtest

import (
	"context"
	"fmt"
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/process"
	"os"
)

// HostSample is a snapshot of the host load and the memory use of this process
type HostSample struct {
	Load1, Load5, Load15 float64
	RSSBytes             uint64
}

// SampleHost reads the load average and the resident set size of the running process.
// Values that cannot be read on this platform stay 0, the first error is returned.
func SampleHost(ctx context.Context) (HostSample, error) {
	var sample HostSample
	var firstErr error

	if avg, err := load.AvgWithContext(ctx); err == nil {
		sample.Load1, sample.Load5, sample.Load15 = avg.Load1, avg.Load5, avg.Load15
	} else {
		firstErr = fmt.Errorf("failed to read load average: %v", err)
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		var mem *process.MemoryInfoStat
		if mem, err = proc.MemoryInfoWithContext(ctx); err == nil {
			sample.RSSBytes = mem.RSS
		}
	}
	if err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to read process memory: %v", err)
	}

	return sample, firstErr
}

func (h HostSample) String() string {
	return fmt.Sprintf("load %.2f %.2f %.2f, rss %.1f MB", h.Load1, h.Load5, h.Load15, float64(h.RSSBytes)/(1<<20))
}
