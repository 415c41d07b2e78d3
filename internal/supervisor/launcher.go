package supervisor

import (
	"log/slog"
	"os"

	"hls-supervisor/internal/transcoder"
)

// Launcher prepares a stream's output directory and starts its worker.
type Launcher struct {
	spawner    transcoder.Spawner
	ffmpegPath string
	log        *slog.Logger
	mkdirAll   func(path string, perm os.FileMode) error
}

// NewLauncher returns a Launcher that starts ffmpegPath through spawner.
func NewLauncher(spawner transcoder.Spawner, ffmpegPath string, log *slog.Logger) *Launcher {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Launcher{
		spawner:    spawner,
		ffmpegPath: ffmpegPath,
		log:        log,
		mkdirAll:   os.MkdirAll,
	}
}

// Command returns the worker invocation for cfg without running it.
func (l *Launcher) Command(cfg StreamConfig) (transcoder.Command, error) {
	return transcoder.BuildCommand(l.ffmpegPath, transcoder.Job{
		Input:           cfg.SourceURL,
		OutputPath:      cfg.OutputPath,
		SegmentDuration: cfg.SegmentDuration,
		PlaylistSize:    cfg.PlaylistSize,
	})
}

// Launch creates cfg's output directory if needed and spawns its worker.
// It returns a *DirectoryCreateError or a *ProcessSpawnError on failure.
func (l *Launcher) Launch(cfg StreamConfig) (transcoder.Worker, error) {
	dir := cfg.OutputDir()
	if err := l.mkdirAll(dir, 0o755); err != nil {
		return nil, &DirectoryCreateError{StreamID: cfg.ID, Dir: dir, Err: err}
	}

	cmd, err := l.Command(cfg)
	if err != nil {
		return nil, &ProcessSpawnError{StreamID: cfg.ID, Err: err}
	}

	l.log.Info("starting worker",
		slog.Int("stream_id", int(cfg.ID)),
		slog.String("source", transcoder.ClassifySource(cfg.SourceURL).String()),
		slog.String("output", cfg.OutputPath),
	)
	l.log.Debug("worker command", slog.Int("stream_id", int(cfg.ID)), slog.String("command", cmd.String()))

	w, err := l.spawner.Spawn(cmd)
	if err != nil {
		return nil, &ProcessSpawnError{StreamID: cfg.ID, Err: err}
	}
	return w, nil
}
