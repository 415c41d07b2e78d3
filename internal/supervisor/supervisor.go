// Package supervisor launches one ffmpeg worker per configured stream,
// tracks each worker's status from its output, and handles restart and
// shutdown requests.
package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hls-supervisor/internal/platform/events"
	"hls-supervisor/internal/transcoder"

	"github.com/hashicorp/go-multierror"
)

// DefaultRestartDelay is how long Restart waits before relaunching.
const DefaultRestartDelay = time.Second

// Options configures a Supervisor.
type Options struct {
	StreamCount  int
	SourceURL    string
	HLS          HLSParams
	FFmpegPath   string
	RestartDelay time.Duration
	Readiness    ReadinessDetector
}

// Supervisor owns the registry and every worker in it.
//
// Composite operations (launch, the stop phase of a restart, shutdown) run
// under mu; the registry has its own lock, always taken after mu. A restart
// relaunches from a timer and only if no newer restart of the same stream
// and no shutdown happened in between.
type Supervisor struct {
	opts     Options
	configs  []StreamConfig
	registry *Registry
	launcher *Launcher
	monitor  *Monitor
	log      *slog.Logger
	bus      *events.Bus
	now      func() time.Time

	mu     sync.Mutex
	tokens map[StreamID]uint64
	timers map[StreamID]*time.Timer
	closed bool
}

// New returns a Supervisor for opts that starts workers through spawner.
// bus may be nil.
func New(opts Options, spawner transcoder.Spawner, log *slog.Logger, bus *events.Bus) *Supervisor {
	if opts.RestartDelay < 0 {
		opts.RestartDelay = 0
	}
	registry := NewRegistry()
	return &Supervisor{
		opts:     opts,
		configs:  ResolveAll(opts.StreamCount, opts.SourceURL, opts.HLS),
		registry: registry,
		launcher: NewLauncher(spawner, opts.FFmpegPath, log.With(slog.String("component", "launcher"))),
		monitor:  NewMonitor(registry, opts.Readiness, log.With(slog.String("component", "monitor")), bus),
		log:      log.With(slog.String("component", "supervisor")),
		bus:      bus,
		now:      time.Now,
		tokens:   make(map[StreamID]uint64),
		timers:   make(map[StreamID]*time.Timer),
	}
}

// StreamCount returns the number of configured streams.
func (s *Supervisor) StreamCount() int {
	return len(s.configs)
}

// Configs returns the resolved stream configurations in id order.
func (s *Supervisor) Configs() []StreamConfig {
	return append([]StreamConfig(nil), s.configs...)
}

// Config returns the configuration of id.
func (s *Supervisor) Config(id StreamID) (StreamConfig, bool) {
	if id < 1 || int(id) > len(s.configs) {
		return StreamConfig{}, false
	}
	return s.configs[id-1], true
}

// Command returns the worker invocation for id.
func (s *Supervisor) Command(id StreamID) (transcoder.Command, error) {
	cfg, ok := s.Config(id)
	if !ok {
		return transcoder.Command{}, fmt.Errorf("%w: %d", ErrInvalidStreamID, id)
	}
	return s.launcher.Command(cfg)
}

// StartAll launches a worker for every configured stream. A failing stream
// does not stop the others; all failures are returned together.
func (s *Supervisor) StartAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = false
	s.log.Info("initializing streams", slog.Int("count", len(s.configs)))

	var result *multierror.Error
	for _, cfg := range s.configs {
		if err := s.launchLocked(cfg); err != nil {
			s.log.Error("failed to start stream", slog.Int("stream_id", int(cfg.ID)), slog.String("error", err.Error()))
			result = multierror.Append(result, err)
			continue
		}
		s.log.Info("initialized stream", slog.Int("stream_id", int(cfg.ID)))
	}
	return result.ErrorOrNil()
}

// Statuses returns a snapshot of every registered worker in id order.
func (s *Supervisor) Statuses() []StatusSnapshot {
	now := s.now()
	records := s.registry.List()
	out := make([]StatusSnapshot, 0, len(records))
	for _, rec := range records {
		out = append(out, snapshot(rec, now))
	}
	return out
}

// Status returns the snapshot of id if a worker is registered for it.
func (s *Supervisor) Status(id StreamID) (StatusSnapshot, bool) {
	rec, ok := s.registry.Get(id)
	if !ok {
		return StatusSnapshot{}, false
	}
	return snapshot(rec, s.now()), true
}

// StatusCounts counts registered workers per status.
func (s *Supervisor) StatusCounts() map[string]int {
	counts := make(map[string]int)
	for _, rec := range s.registry.List() {
		counts[string(rec.Status)]++
	}
	return counts
}

// Restart stops id's worker and schedules a fresh one after the restart
// delay. It returns before the relaunch. When no worker was registered the
// relaunch is still scheduled and ErrProcessNotFound is returned.
func (s *Supervisor) Restart(id StreamID) error {
	cfg, ok := s.Config(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidStreamID, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSupervisorClosed
	}

	s.log.Info("restarting stream", slog.Int("stream_id", int(id)))
	stopped := s.stopLocked(id)

	s.tokens[id]++
	token := s.tokens[id]
	if t := s.timers[id]; t != nil {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(s.opts.RestartDelay, func() { s.relaunch(cfg, token) })

	s.bus.Publish(events.RestartRequested{StreamID: int(id), At: s.now()})

	if !stopped {
		return fmt.Errorf("stream %d: %w", id, ErrProcessNotFound)
	}
	return nil
}

// Shutdown asks every registered worker to terminate, empties the registry
// and cancels pending relaunches. It does not wait for the processes to
// exit. Calling it again is harmless.
func (s *Supervisor) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("shutting down stream supervisor")
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}

	var result *multierror.Error
	for _, rec := range s.registry.Drain() {
		if err := s.terminate(rec); err != nil {
			result = multierror.Append(result, fmt.Errorf("stream %d: %w", rec.StreamID, err))
		}
	}
	s.log.Info("all streams stopped")
	return result.ErrorOrNil()
}

// relaunch runs from the restart timer.
func (s *Supervisor) relaunch(cfg StreamConfig, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.tokens[cfg.ID] != token {
		s.log.Debug("relaunch superseded", slog.Int("stream_id", int(cfg.ID)))
		return
	}
	delete(s.timers, cfg.ID)

	if err := s.launchLocked(cfg); err != nil {
		s.log.Error("failed to relaunch stream", slog.Int("stream_id", int(cfg.ID)), slog.String("error", err.Error()))
		return
	}
	s.log.Info("stream relaunched", slog.Int("stream_id", int(cfg.ID)))
}

// launchLocked reserves cfg's registry slot, starts the worker and attaches
// a monitor. Caller must hold s.mu.
func (s *Supervisor) launchLocked(cfg StreamConfig) error {
	gen, err := s.registry.Reserve(cfg.ID)
	if err != nil {
		return fmt.Errorf("stream %d: %w", cfg.ID, err)
	}

	w, err := s.launcher.Launch(cfg)
	if err != nil {
		var dirErr *DirectoryCreateError
		if errors.As(err, &dirErr) {
			s.registry.Retire(cfg.ID, gen)
		} else if from, ok := s.registry.Transition(cfg.ID, gen, StatusError); ok {
			s.bus.Publish(events.WorkerStateChanged{StreamID: int(cfg.ID), From: string(from), To: string(StatusError), At: s.now()})
		}
		s.bus.Publish(events.WorkerLaunched{StreamID: int(cfg.ID), Err: err.Error(), At: s.now()})
		return err
	}

	s.registry.Attach(cfg.ID, gen, w, s.now())
	s.bus.Publish(events.WorkerLaunched{StreamID: int(cfg.ID), PID: w.PID(), At: s.now()})
	go s.monitor.Watch(cfg.ID, gen, w)
	return nil
}

// stopLocked removes id's record and signals its worker. Caller must hold s.mu.
func (s *Supervisor) stopLocked(id StreamID) bool {
	rec, ok := s.registry.Remove(id)
	if !ok {
		return false
	}
	if err := s.terminate(rec); err != nil {
		s.log.Warn("failed to signal worker", slog.Int("stream_id", int(id)), slog.String("error", err.Error()))
	}
	s.log.Info("stopped stream", slog.Int("stream_id", int(id)))
	return true
}

// terminate signals rec's worker, if it has one, and reports the record as
// stopped.
func (s *Supervisor) terminate(rec WorkerRecord) error {
	var err error
	if rec.Worker != nil {
		err = transcoder.IgnoreDone(rec.Worker.Terminate())
	}
	s.bus.Publish(events.WorkerStateChanged{StreamID: int(rec.StreamID), From: string(rec.Status), To: string(StatusStopped), At: s.now()})
	return err
}

func snapshot(rec WorkerRecord, now time.Time) StatusSnapshot {
	snap := StatusSnapshot{
		StreamID:  rec.StreamID,
		Status:    rec.Status,
		OutputURL: OutputURL(rec.StreamID),
	}
	if !rec.StartedAt.IsZero() {
		up := int64(now.Sub(rec.StartedAt) / time.Second)
		if up < 0 {
			up = 0
		}
		snap.Uptime = &up
	}
	return snap
}
