package transcoder

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	child_process_manager "github.com/AgustinSRG/go-child-process-manager"
)

// outputBuffer is how many diagnostic lines may queue before the reader
// goroutines block on the consumer.
const outputBuffer = 64

// ExecSpawner starts workers as child processes of the current process.
type ExecSpawner struct {
	log *slog.Logger
}

// NewExecSpawner returns a Spawner backed by os/exec.
func NewExecSpawner(log *slog.Logger) *ExecSpawner {
	return &ExecSpawner{log: log}
}

// Spawn starts cmd in its own process group with both output streams piped.
// The process is registered with the child process manager so it does not
// outlive the supervisor.
func (s *ExecSpawner) Spawn(cmd Command) (Worker, error) {
	c := exec.Command(cmd.Path, cmd.Args...)
	if err := child_process_manager.ConfigureCommand(c); err != nil {
		s.warn("could not configure worker as a child process", err)
	}
	applyProcAttr(c)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := c.Start(); err != nil {
		return nil, err
	}
	if err := child_process_manager.AddChildProcess(c.Process); err != nil {
		s.warn("could not register worker as a child process", err)
	}

	w := &execWorker{
		cmd:  c,
		out:  make(chan string, outputBuffer),
		done: make(chan struct{}),
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go w.pump(stdout, &readers)
	go w.pump(stderr, &readers)

	go func() {
		// exec requires the pipes to be drained before Wait.
		readers.Wait()
		close(w.out)
		w.err = c.Wait()
		close(w.done)
	}()

	if s.log != nil {
		s.log.Debug("worker process started", slog.Int("pid", c.Process.Pid), slog.String("path", cmd.Path))
	}
	return w, nil
}

func (s *ExecSpawner) warn(msg string, err error) {
	if s.log != nil {
		s.log.Warn(msg, slog.String("error", err.Error()))
	}
}

type execWorker struct {
	cmd  *exec.Cmd
	out  chan string
	done chan struct{}
	err  error
}

func (w *execWorker) pump(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	scanner.Split(scanLines)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			w.out <- line
		}
	}
	// A scan error leaves the rest of the stream unread; discard it so the
	// process never blocks on a full pipe.
	if scanner.Err() != nil {
		_, _ = io.Copy(io.Discard, r)
	}
}

func (w *execWorker) PID() int { return w.cmd.Process.Pid }

func (w *execWorker) Output() <-chan string { return w.out }

func (w *execWorker) Wait() error {
	<-w.done
	return w.err
}

func (w *execWorker) Terminate() error {
	return w.cmd.Process.Signal(terminateSignal)
}
