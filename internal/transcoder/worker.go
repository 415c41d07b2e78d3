package transcoder

import (
	"errors"
	"os"
	"os/exec"
)

// Worker is a handle to one running transcoding process.
type Worker interface {
	// PID returns the OS process id.
	PID() int
	// Output delivers the process's diagnostic lines (stdout and stderr
	// interleaved). It is closed once both streams reach EOF.
	Output() <-chan string
	// Wait blocks until the process has exited and returns its wait error.
	// Drain Output before relying on Wait returning.
	Wait() error
	// Terminate asks the process to stop. It does not wait.
	Terminate() error
}

// Spawner starts workers.
type Spawner interface {
	Spawn(cmd Command) (Worker, error)
}

// ExitCode returns 0 for a nil error, the process exit code for an
// *exec.ExitError (-1 when killed by a signal), and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// IsExit reports whether err describes a normal process exit (any code or
// signal) rather than a failure to run or wait for the process.
func IsExit(err error) bool {
	if err == nil {
		return true
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// IgnoreDone drops os.ErrProcessDone, which Terminate returns when the
// process is already gone.
func IgnoreDone(err error) error {
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
