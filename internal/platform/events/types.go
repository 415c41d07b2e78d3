package events

import "time"

// Event type identifiers for kelindar/event.
const (
	TypeWorkerStateChanged uint32 = iota + 1
	TypeWorkerLaunched
	TypeWorkerExited
	TypeRestartRequested
	TypeEncoderProgress
	TypeSegmentWritten
)

// Event is the interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// WorkerStateChanged is published on every status transition of a worker.
type WorkerStateChanged struct {
	StreamID int
	From     string
	To       string
	At       time.Time
}

func (WorkerStateChanged) Type() uint32 { return TypeWorkerStateChanged }

// WorkerLaunched is published after every launch attempt. Err is empty on success.
type WorkerLaunched struct {
	StreamID int
	PID      int
	Err      string
	At       time.Time
}

func (WorkerLaunched) Type() uint32 { return TypeWorkerLaunched }

// WorkerExited is published when a worker process has exited.
type WorkerExited struct {
	StreamID int
	ExitCode int
	At       time.Time
}

func (WorkerExited) Type() uint32 { return TypeWorkerExited }

// RestartRequested is published when a restart for a valid stream id is accepted.
type RestartRequested struct {
	StreamID int
	At       time.Time
}

func (RestartRequested) Type() uint32 { return TypeRestartRequested }

// EncoderProgress carries the figures from one ffmpeg progress line.
type EncoderProgress struct {
	StreamID int
	Frame    int64
	FPS      float64
	Speed    float64
}

func (EncoderProgress) Type() uint32 { return TypeEncoderProgress }

// SegmentWritten is published when a new media segment appears in a stream's
// output directory.
type SegmentWritten struct {
	StreamID int
	Name     string
	At       time.Time
}

func (SegmentWritten) Type() uint32 { return TypeSegmentWritten }
