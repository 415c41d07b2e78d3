package main

import (
	"log/slog"
	"net/http"
	"time"

	"hls-supervisor/internal/hls"
	"hls-supervisor/internal/platform/config"
	"hls-supervisor/internal/platform/cors"
	"hls-supervisor/internal/platform/logger"
	"hls-supervisor/internal/platform/metrics"
	"hls-supervisor/internal/supervisor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// lastSegmentFunc reports when a stream last produced a segment.
type lastSegmentFunc func(streamID int) (time.Time, bool)

func newRouter(s config.Settings, sup *supervisor.Supervisor, last lastSegmentFunc, met *metrics.Metrics, log *slog.Logger) http.Handler {
	ids := make([]int, 0, sup.StreamCount())
	for _, cfg := range sup.Configs() {
		ids = append(ids, int(cfg.ID))
	}
	h := supervisor.NewHandler(sup, log.With(slog.String("component", "api"))).
		WithFiles(func() []hls.DirReport { return hls.Inspect(s.OutputDir, ids, last) })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Use(cors.Middleware(cors.DefaultConfig(s.CORSOrigin)))

	if met != nil {
		r.Method(http.MethodGet, "/metrics", met.Handler(func() { met.SetWorkers(sup.StatusCounts()) }))
	}
	r.Handle("/streams/*", http.StripPrefix("/streams", hls.FileServer(s.OutputDir)))
	r.Mount("/api/streams", h.Routes())
	r.Get("/", h.Index)
	return r
}
