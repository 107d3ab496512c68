// Package hardware detects accelerator availability and samples resource
// utilization for processing telemetry.
package hardware

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Info reports whether an accelerator is available and its name. Queried
// on demand, not cached across the process.
type Info struct {
	Available bool
	Name      string
}

// Runner executes external hardware query tools.
type Runner interface {
	Output(name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Monitor answers hardware capability and utilization queries.
type Monitor struct {
	runner Runner
}

// NewMonitor creates a monitor backed by the real system tools.
func NewMonitor() *Monitor {
	return &Monitor{runner: execRunner{}}
}

// NewMonitorWithRunner creates a monitor with a custom command runner.
func NewMonitorWithRunner(r Runner) *Monitor {
	return &Monitor{runner: r}
}

// Detect queries for a CUDA-capable accelerator via nvidia-smi.
func (m *Monitor) Detect() Info {
	out, err := m.runner.Output("nvidia-smi", "--query-gpu=name", "--format=csv,noheader")
	if err != nil {
		return Info{Available: false, Name: "CPU"}
	}
	name := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	if name == "" {
		return Info{Available: false, Name: "CPU"}
	}
	return Info{Available: true, Name: name}
}

// Usage returns the instantaneous utilization percentage: the accelerator's
// when accelerated is true, the processor's otherwise. A failing
// accelerator query yields 0 silently; this is an accepted approximation
// on platforms without a utilization counter.
func (m *Monitor) Usage(accelerated bool) float64 {
	if accelerated {
		return m.gpuUtilization()
	}
	return m.cpuUtilization()
}

func (m *Monitor) gpuUtilization() float64 {
	out, err := m.runner.Output("nvidia-smi",
		"--query-gpu=utilization.gpu", "--format=csv,noheader,nounits")
	if err != nil {
		return 0
	}
	value := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	pct, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return pct
}

func (m *Monitor) cpuUtilization() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return 0
	}
	return percents[0]
}

// AvailableMemoryGB reports available system memory, for the performance
// settings page readout. Returns 0 when the query fails.
func AvailableMemoryGB() float64 {
	stats, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return float64(stats.Available) / (1024 * 1024 * 1024)
}
