// Package monitor derives discrete operating states from noisy probe
// signals and schedules the next poll adaptively. It performs no I/O:
// probe results and host-environment checks are passed in once per
// iteration, and consumers read the derived state back out.
package monitor

// ServiceStatus is a snapshot of the independent health signals for the
// monitored service, produced fresh each iteration by the host
// environment and probe collaborators.
type ServiceStatus struct {
	InstallPresent bool // service binary present on the host
	Registered     bool // registered with the process manager
	ProcessAlive   bool // process manager reports a live PID
	APIResponsive  bool // metrics API answered this cycle
}

// FullyOperational reports whether every layer is healthy.
func (s ServiceStatus) FullyOperational() bool {
	return s.InstallPresent && s.Registered && s.ProcessAlive && s.APIResponsive
}

// Description returns a user-facing summary of the layered status.
func (s ServiceStatus) Description() string {
	switch {
	case s.FullyOperational():
		return "Running"
	case s.InstallPresent && s.Registered && s.ProcessAlive:
		return "Process running but API unresponsive"
	case s.InstallPresent && s.Registered && !s.APIResponsive:
		return "Registered but not running"
	case s.InstallPresent && !s.Registered && !s.ProcessAlive && !s.APIResponsive:
		return "Stopped"
	case !s.InstallPresent:
		return "Not installed"
	default:
		return "Unknown state"
	}
}
