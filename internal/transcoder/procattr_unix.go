//go:build unix && !linux

package transcoder

import (
	"os/exec"
	"syscall"
)

// terminateSignal is sent by Worker.Terminate.
var terminateSignal = syscall.SIGTERM

// applyProcAttr puts the worker in its own process group so a Ctrl-C on the
// supervisor's terminal is not delivered to it directly; the supervisor
// decides when workers stop.
func applyProcAttr(c *exec.Cmd) {
	if c.SysProcAttr == nil {
		c.SysProcAttr = &syscall.SysProcAttr{}
	}
	if !c.SysProcAttr.Setsid {
		c.SysProcAttr.Setpgid = true
	}
}
