//go:build !windows

package launcher

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcAttributes is a no-op on unix-like systems.
func setProcAttributes(cmd *exec.Cmd) {}

// terminate asks the process to exit gracefully.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
