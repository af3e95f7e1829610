package pipeline

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// usage holds one stage's measured resource window.
type usage struct {
	started    time.Time
	ended      time.Time
	cpuPercent float64
	memoryRSS  uint64
	memoryPct  float64
	readBytes  uint64
	writeBytes uint64
}

// profiler samples the current process around stage executions.
type profiler struct {
	proc *process.Process
}

// newProfiler attaches to the running process. When process inspection
// is unavailable the profiler degrades to wall-clock timing.
func newProfiler() *profiler {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return &profiler{}
	}
	return &profiler{proc: proc}
}

// measure runs fn and records the resource usage of its window. CPU is
// the process's share over the window; io counters are deltas across it.
func (p *profiler) measure(fn func() error) (usage, error) {
	var startRead, startWrite uint64
	if p.proc != nil {
		p.proc.Percent(0)
		if counters, err := p.proc.IOCounters(); err == nil {
			startRead, startWrite = counters.ReadBytes, counters.WriteBytes
		}
	}

	u := usage{started: time.Now()}
	err := fn()
	u.ended = time.Now()

	if p.proc == nil {
		return u, err
	}

	if pct, perr := p.proc.Percent(0); perr == nil {
		u.cpuPercent = pct
	}
	if mem, merr := p.proc.MemoryInfo(); merr == nil && mem != nil {
		u.memoryRSS = mem.RSS
	}
	if pct, merr := p.proc.MemoryPercent(); merr == nil {
		u.memoryPct = float64(pct)
	}
	if counters, cerr := p.proc.IOCounters(); cerr == nil {
		u.readBytes = counters.ReadBytes - startRead
		u.writeBytes = counters.WriteBytes - startWrite
	}

	return u, err
}
