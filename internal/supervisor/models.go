package supervisor

import (
	"path/filepath"
	"strconv"
	"time"

	"hls-supervisor/internal/transcoder"
)

// StreamID identifies a logical channel, 1..N.
type StreamID int

func (id StreamID) String() string { return strconv.Itoa(int(id)) }

// Status is the lifecycle state of a worker.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusStopped || s == StatusError
}

// HLSParams are the segmenting parameters shared by every stream.
type HLSParams struct {
	OutputRoot      string
	SegmentDuration int
	PlaylistSize    int
}

// StreamConfig is the immutable launch configuration of one stream.
type StreamConfig struct {
	ID              StreamID
	SourceURL       string
	OutputPath      string
	SegmentDuration int
	PlaylistSize    int
}

// OutputDir is the directory holding the playlist and its segments.
func (c StreamConfig) OutputDir() string {
	return filepath.Dir(c.OutputPath)
}

// WorkerRecord is the registry entry for a launched worker.
// Worker is nil when the spawn failed.
type WorkerRecord struct {
	StreamID   StreamID
	Worker     transcoder.Worker
	PID        int
	Status     Status
	StartedAt  time.Time
	Generation uint64
}

// StatusSnapshot is the externally visible view of one registered worker.
// Uptime is in whole seconds and omitted when the worker never started.
type StatusSnapshot struct {
	StreamID  StreamID `json:"streamId"`
	Status    Status   `json:"status"`
	Uptime    *int64   `json:"uptime,omitempty"`
	OutputURL string   `json:"outputUrl"`
}
