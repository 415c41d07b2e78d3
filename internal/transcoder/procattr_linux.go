package transcoder

import (
	"os/exec"
	"syscall"
)

// terminateSignal is sent by Worker.Terminate.
var terminateSignal = syscall.SIGTERM

// applyProcAttr detaches the worker from the terminal's process group and
// asks the kernel to kill it when the supervisor dies, however that happens.
// A death signal already chosen by the child process manager is kept.
func applyProcAttr(c *exec.Cmd) {
	if c.SysProcAttr == nil {
		c.SysProcAttr = &syscall.SysProcAttr{}
	}
	if !c.SysProcAttr.Setsid {
		c.SysProcAttr.Setpgid = true
	}
	if c.SysProcAttr.Pdeathsig == 0 {
		c.SysProcAttr.Pdeathsig = syscall.SIGKILL
	}
}
