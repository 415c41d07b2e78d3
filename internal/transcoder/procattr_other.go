//go:build !unix

package transcoder

import (
	"os"
	"os/exec"
)

var terminateSignal = os.Kill

// applyProcAttr is a no-op; the child process manager's job object ties
// workers to the supervisor.
func applyProcAttr(*exec.Cmd) {}
