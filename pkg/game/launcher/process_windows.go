//go:build windows

package launcher

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcAttributes hides the console window of the spawned process.
func setProcAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: 0x08000000, // CREATE_NO_WINDOW
	}
}

// terminate kills outright; windows offers no graceful signal.
func terminate(p *os.Process) error {
	return p.Kill()
}
