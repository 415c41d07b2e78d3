package hls

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"hls-supervisor/internal/platform/events"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes stream output directories and publishes a
// SegmentWritten event for every new .ts file ffmpeg creates.
type Watcher struct {
	log   *slog.Logger
	bus   *events.Bus
	fsw   *fsnotify.Watcher
	now   func() time.Time
	mu    sync.RWMutex
	dirs  map[string]int
	last  map[int]time.Time
	seen  map[int]int64
	close sync.Once
}

// NewWatcher creates a Watcher. Call Run to start processing events.
func NewWatcher(log *slog.Logger, bus *events.Bus) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	return &Watcher{
		log:  log,
		bus:  bus,
		fsw:  fsw,
		now:  time.Now,
		dirs: make(map[string]int),
		last: make(map[int]time.Time),
		seen: make(map[int]int64),
	}, nil
}

// Add starts watching dir as the output directory of streamID.
func (w *Watcher) Add(streamID int, dir string) error {
	clean := filepath.Clean(dir)
	if err := w.fsw.Add(clean); err != nil {
		return fmt.Errorf("watch %s: %w", StreamDirName(streamID), err)
	}
	w.mu.Lock()
	w.dirs[clean] = streamID
	w.mu.Unlock()
	return nil
}

// LastSegment returns when the latest segment of streamID was seen.
func (w *Watcher) LastSegment(streamID int) (time.Time, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	t, ok := w.last[streamID]
	return t, ok
}

// Segments returns how many segments of streamID have been seen.
func (w *Watcher) Segments(streamID int) int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.seen[streamID]
}

// Run processes filesystem events until ctx is done, then releases the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("output watcher error", slog.String("error", err.Error()))
		}
	}
}

// Close stops the underlying watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.close.Do(func() { err = w.fsw.Close() })
	return err
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) || filepath.Ext(ev.Name) != ".ts" {
		return
	}

	w.mu.Lock()
	id, ok := w.dirs[filepath.Dir(ev.Name)]
	if !ok {
		w.mu.Unlock()
		return
	}
	at := w.now()
	w.last[id] = at
	w.seen[id]++
	w.mu.Unlock()

	name := filepath.Base(ev.Name)
	w.log.Debug("segment written", slog.Int("stream_id", id), slog.String("segment", name))
	w.bus.Publish(events.SegmentWritten{StreamID: id, Name: name, At: at})
}
