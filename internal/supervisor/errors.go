package supervisor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStreamID is returned for ids outside 1..streamCount.
	ErrInvalidStreamID = errors.New("invalid stream id")

	// ErrProcessNotFound is returned when no worker is registered for a
	// valid id. It is informational: the requested operation still ran.
	ErrProcessNotFound = errors.New("process not found")

	// ErrWorkerExists is returned when a launch is refused because a worker
	// is already registered for the id.
	ErrWorkerExists = errors.New("worker already registered")

	// ErrSupervisorClosed is returned by Restart after Shutdown.
	ErrSupervisorClosed = errors.New("supervisor is shut down")
)

// ProcessSpawnError reports that the worker binary could not be started.
// The stream is left registered in the error status.
type ProcessSpawnError struct {
	StreamID StreamID
	Err      error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("stream %d: spawn worker: %v", e.StreamID, e.Err)
}

func (e *ProcessSpawnError) Unwrap() error { return e.Err }

// DirectoryCreateError reports that a stream's output directory could not
// be created. The stream is not launched.
type DirectoryCreateError struct {
	StreamID StreamID
	Dir      string
	Err      error
}

func (e *DirectoryCreateError) Error() string {
	return fmt.Sprintf("stream %d: create output directory: %v", e.StreamID, e.Err)
}

func (e *DirectoryCreateError) Unwrap() error { return e.Err }
