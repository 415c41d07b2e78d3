package supervisor

import (
	"context"
	"log/slog"
	"time"

	"hls-supervisor/internal/platform/events"
	"hls-supervisor/internal/transcoder"
)

// Monitor follows one worker's output and exit and keeps its registry
// record current. It never relaunches a worker.
type Monitor struct {
	registry *Registry
	detector ReadinessDetector
	log      *slog.Logger
	bus      *events.Bus
	now      func() time.Time
}

// NewMonitor returns a Monitor updating registry. A nil detector uses
// DefaultReadinessMarkers.
func NewMonitor(registry *Registry, detector ReadinessDetector, log *slog.Logger, bus *events.Bus) *Monitor {
	if detector == nil {
		detector = NewMarkerDetector()
	}
	return &Monitor{
		registry: registry,
		detector: detector,
		log:      log,
		bus:      bus,
		now:      time.Now,
	}
}

// Watch consumes w until it exits. gen is the generation of the record w
// was attached to; updates for any other generation are dropped.
func (m *Monitor) Watch(id StreamID, gen uint64, w transcoder.Worker) {
	log := m.log.With(slog.Int("stream_id", int(id)), slog.Int("pid", w.PID()))

	ready := false
	for line := range w.Output() {
		m.logLine(log, line)

		if p, ok := transcoder.ParseProgress(line); ok {
			m.bus.Publish(events.EncoderProgress{StreamID: int(id), Frame: p.Frame, FPS: p.FPS, Speed: p.Speed})
		}

		if !ready && m.detector.Ready(line) {
			ready = true
			if from, ok := m.registry.Transition(id, gen, StatusRunning); ok {
				log.Info("stream is now running")
				m.publishState(id, from, StatusRunning)
			}
		}
	}

	err := w.Wait()
	code := transcoder.ExitCode(err)

	if !transcoder.IsExit(err) {
		if from, ok := m.registry.Transition(id, gen, StatusError); ok {
			log.Error("worker failed", slog.String("error", err.Error()))
			m.publishState(id, from, StatusError)
		}
	}

	if rec, ok := m.registry.Retire(id, gen); ok {
		log.Warn("stream exited", slog.Int("exit_code", code))
		m.publishState(id, rec.Status, StatusStopped)
	} else {
		log.Debug("stopped worker exited", slog.Int("exit_code", code))
	}
	m.bus.Publish(events.WorkerExited{StreamID: int(id), ExitCode: code, At: m.now()})
}

// logLine forwards a worker line at the level ffmpeg tagged it with.
// Informational chatter goes to debug.
func (m *Monitor) logLine(log *slog.Logger, line string) {
	level, msg := transcoder.ParseLogLevel(line)
	if level < slog.LevelWarn {
		level = slog.LevelDebug
	}
	log.Log(context.Background(), level, msg, slog.String("source", "ffmpeg"))
}

func (m *Monitor) publishState(id StreamID, from, to Status) {
	m.bus.Publish(events.WorkerStateChanged{StreamID: int(id), From: string(from), To: string(to), At: m.now()})
}
