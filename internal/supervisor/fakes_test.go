package supervisor

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"hls-supervisor/internal/transcoder"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeWorker is an in-memory transcoder.Worker. Lines are fed with emit and
// the process "exits" with exit.
type fakeWorker struct {
	pid  int
	out  chan string
	done chan struct{}
	once sync.Once
	err  error

	linger       bool
	terminateErr error
	terminated   atomic.Int32
}

func newFakeWorker(pid int) *fakeWorker {
	return &fakeWorker{
		pid:  pid,
		out:  make(chan string, 16),
		done: make(chan struct{}),
	}
}

func (w *fakeWorker) PID() int { return w.pid }

func (w *fakeWorker) Output() <-chan string { return w.out }

func (w *fakeWorker) Wait() error {
	<-w.done
	return w.err
}

func (w *fakeWorker) wasTerminated() bool { return w.terminated.Load() > 0 }

func (w *fakeWorker) emit(line string) { w.out <- line }

func (w *fakeWorker) Terminate() error {
	w.terminated.Add(1)
	if w.terminateErr != nil {
		return w.terminateErr
	}
	if !w.linger {
		w.exit(nil)
	}
	return nil
}

func (w *fakeWorker) exit(err error) {
	w.once.Do(func() {
		w.err = err
		close(w.out)
		close(w.done)
	})
}

// fakeSpawner hands out fakeWorkers and remembers them per stream directory.
type fakeSpawner struct {
	mu       sync.Mutex
	nextPID  int
	fail     error
	linger   bool
	cmds     []transcoder.Command
	byStream map[string][]*fakeWorker
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{nextPID: 1000, byStream: make(map[string][]*fakeWorker)}
}

func (s *fakeSpawner) Spawn(cmd transcoder.Command) (transcoder.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cmds = append(s.cmds, cmd)
	if s.fail != nil {
		return nil, s.fail
	}
	s.nextPID++
	w := newFakeWorker(s.nextPID)
	w.linger = s.linger

	dir := filepath.Base(filepath.Dir(cmd.Args[len(cmd.Args)-1]))
	s.byStream[dir] = append(s.byStream[dir], w)
	return w, nil
}

func (s *fakeSpawner) setFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *fakeSpawner) setLinger(v bool) {
	s.mu.Lock()
	s.linger = v
	s.mu.Unlock()
}

// workers returns every worker spawned for id, oldest first.
func (s *fakeSpawner) workers(id StreamID) []*fakeWorker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeWorker(nil), s.byStream[StreamDir(id)]...)
}

func (s *fakeSpawner) latest(id StreamID) *fakeWorker {
	ws := s.workers(id)
	if len(ws) == 0 {
		return nil
	}
	return ws[len(ws)-1]
}

func (s *fakeSpawner) spawnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cmds)
}

// stepClock advances one second on every reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

var errCrashed = errors.New("worker crashed")
