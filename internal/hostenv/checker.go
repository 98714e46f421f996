// Package hostenv checks the host environment of the monitored service:
// whether its binary is installed, whether it is registered with the
// platform service manager, and whether its process is alive. Checks are
// best-effort booleans; this package never returns per-check errors.
package hostenv

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kardianos/service"

	"github.com/swapwatch/swapwatch/internal/monitor"
)

// noopProgram satisfies service.Interface for status-only queries; the
// monitored service is managed elsewhere, we never run it ourselves.
type noopProgram struct{}

func (noopProgram) Start(service.Service) error { return nil }
func (noopProgram) Stop(service.Service) error  { return nil }

// Checker probes the host environment for one named service.
type Checker struct {
	svc        service.Service
	binaryName string
}

// New creates a Checker for the service registered under serviceName
// whose executable is binaryName.
func New(serviceName, binaryName string) (*Checker, error) {
	if serviceName == "" || binaryName == "" {
		return nil, fmt.Errorf("hostenv: service and binary names are required")
	}

	svc, err := service.New(noopProgram{}, &service.Config{
		Name: serviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("hostenv: create service handle: %w", err)
	}

	return &Checker{svc: svc, binaryName: binaryName}, nil
}

// Check returns a fresh status snapshot. apiResponsive is supplied by
// the caller from this cycle's probe outcome; the other three flags are
// established here independently, so liveness remains known even when
// the API is down.
func (c *Checker) Check(apiResponsive bool) monitor.ServiceStatus {
	registered, alive := c.managerStatus()
	if !alive {
		// The service manager can miss a manually started process.
		alive = processAlive(c.binaryName)
	}
	return monitor.ServiceStatus{
		InstallPresent: c.installPresent(),
		Registered:     registered,
		ProcessAlive:   alive,
		APIResponsive:  apiResponsive,
	}
}

// managerStatus queries the platform service manager. StatusUnknown or
// an error means the service is not registered.
func (c *Checker) managerStatus() (registered, alive bool) {
	status, err := c.svc.Status()
	if err != nil || status == service.StatusUnknown {
		return false, false
	}
	return true, status == service.StatusRunning
}

// installPresent looks for the service binary on PATH, then in the
// conventional install locations.
func (c *Checker) installPresent() bool {
	if _, err := exec.LookPath(c.binaryName); err == nil {
		return true
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	candidates := []string{
		filepath.Join("/usr/local/bin", c.binaryName),
		filepath.Join("/opt/homebrew/bin", c.binaryName),
	}
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".local", "bin", c.binaryName),
			filepath.Join(home, "bin", c.binaryName),
		)
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// processAlive scans for a live process with the binary's name.
func processAlive(binaryName string) bool {
	out, err := exec.Command("pgrep", "-x", binaryName).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) != ""
}
