package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hls-supervisor/internal/hls"
	"hls-supervisor/internal/platform/config"
	"hls-supervisor/internal/platform/events"
	"hls-supervisor/internal/platform/logger"
	"hls-supervisor/internal/platform/metrics"
	"hls-supervisor/internal/supervisor"
	"hls-supervisor/internal/transcoder"

	child_process_manager "github.com/AgustinSRG/go-child-process-manager"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hls-supervisor",
		Short:         "Run one ffmpeg HLS pipeline per stream and serve the output",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := config.BindFlags(root.PersistentFlags())

	root.RunE = func(cmd *cobra.Command, _ []string) error {
		settings, err := flags.Resolve(cmd.Flags())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "invalid configuration: %v\n", err)
			return err
		}
		return serve(cmd.Context(), settings)
	}

	root.AddCommand(&cobra.Command{
		Use:   "args",
		Short: "Print the ffmpeg invocation of every stream and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := flags.Resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return printArgs(cmd, settings)
		},
	})
	return root
}

func supervisorOptions(s config.Settings) supervisor.Options {
	return supervisor.Options{
		StreamCount: s.StreamCount,
		SourceURL:   s.SourceURL,
		HLS: supervisor.HLSParams{
			OutputRoot:      s.OutputDir,
			SegmentDuration: s.SegmentDuration,
			PlaylistSize:    s.PlaylistSize,
		},
		FFmpegPath:   s.FFmpegPath,
		RestartDelay: s.RestartDelay(),
	}
}

func printArgs(cmd *cobra.Command, s config.Settings) error {
	sup := supervisor.New(supervisorOptions(s), nil, logger.Discard(), nil)
	for _, cfg := range sup.Configs() {
		c, err := sup.Command(cfg.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stream%d: %s\n", cfg.ID, c)
	}
	return nil
}

// newWatcher is replaced in tests.
var newWatcher = hls.NewWatcher

func serve(ctx context.Context, s config.Settings) error {
	log := logger.New(logger.Options{Level: s.LogLevel, Format: s.LogFormat})

	if err := child_process_manager.InitializeChildProcessManager(); err != nil {
		log.Warn("child process manager unavailable", slog.String("error", err.Error()))
	} else {
		defer child_process_manager.DisposeChildProcessManager()
	}

	return run(ctx, s, log, transcoder.NewExecSpawner(log))
}

// run owns the worker lifecycle: once StartAll has been called, every return
// path stops the workers.
func run(ctx context.Context, s config.Settings, log *slog.Logger, spawner transcoder.Spawner) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.New()
	met := metrics.New()
	defer met.Subscribe(bus)()

	watcher, err := newWatcher(log.With(slog.String("component", "watcher")), bus)
	if err != nil {
		return err
	}
	defer watcher.Close()

	sup := supervisor.New(supervisorOptions(s), spawner, log, bus)
	stopStreams := sync.OnceFunc(func() {
		if err := sup.Shutdown(); err != nil {
			log.Warn("some workers could not be signalled", slog.String("error", err.Error()))
		}
	})
	defer stopStreams()

	if err := sup.StartAll(); err != nil {
		log.Error("some streams failed to start", slog.String("error", err.Error()))
	}
	for _, cfg := range sup.Configs() {
		if err := watcher.Add(int(cfg.ID), cfg.OutputDir()); err != nil {
			log.Warn("not watching stream output", slog.Int("stream_id", int(cfg.ID)), slog.String("error", err.Error()))
		}
	}

	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           newRouter(s, sup, watcher.LastSegment, met, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.Int("streams", s.StreamCount),
			slog.String("output_dir", s.OutputDir),
			slog.String("log_level", s.LogLevel),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, stopping streams")
		stopStreams()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		return err
	}
	log.Info("server stopped")
	return nil
}
