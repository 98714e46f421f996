package hostenv

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/swapwatch/swapwatch/internal/probe"
)

// SystemSampler reads host CPU and memory gauges plus the monitored
// process's resident memory. Sampling is best-effort like the other
// host checks: failures yield zero gauges, never errors.
type SystemSampler struct {
	binaryName string
	proc       *process.Process
}

// NewSystemSampler creates a sampler that attributes process memory to
// the named service binary.
func NewSystemSampler(binaryName string) *SystemSampler {
	return &SystemSampler{binaryName: binaryName}
}

// Sample implements probe.SystemSampler.
func (s *SystemSampler) Sample() probe.SystemMetrics {
	var out probe.SystemMetrics

	// The first call has no prior measurement and reports zero; every
	// later call covers the span since the previous one.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		out.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		out.MemoryPercent = vm.UsedPercent
		out.UsedMemoryGB = float64(vm.Used) / (1024 * 1024 * 1024)
	}
	if p := s.serviceProcess(); p != nil {
		if info, err := p.MemoryInfo(); err == nil && info != nil {
			out.ServiceMemoryMB = float64(info.RSS) / (1024 * 1024)
		}
	}
	return out
}

// serviceProcess returns a handle to the service process, reusing the
// cached one while it stays alive.
func (s *SystemSampler) serviceProcess() *process.Process {
	if s.proc != nil {
		if running, err := s.proc.IsRunning(); err == nil && running {
			return s.proc
		}
		s.proc = nil
	}

	procs, err := process.Processes()
	if err != nil {
		return nil
	}
	for _, p := range procs {
		if name, err := p.Name(); err == nil && name == s.binaryName {
			s.proc = p
			return p
		}
	}
	return nil
}
