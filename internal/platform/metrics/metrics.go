package metrics

import (
	"net/http"
	"strconv"

	"hls-supervisor/internal/platform/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for the stream supervisor.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   prometheus.Counter
	errorsTotal     prometheus.Counter
	launchesTotal   *prometheus.CounterVec
	restartsTotal   prometheus.Counter
	exitsTotal      *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	segmentsTotal   *prometheus.CounterVec
	activeWorkers   prometheus.Gauge
	workersByStatus *prometheus.GaugeVec
	encoderFPS      *prometheus.GaugeVec
	encoderSpeed    *prometheus.GaugeVec
}

// New creates and registers the supervisor metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hls_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hls_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		launchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hls_worker_launches_total",
			Help: "Worker launch attempts by result",
		}, []string{"result"}),
		restartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hls_worker_restarts_total",
			Help: "Accepted restart requests",
		}),
		exitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hls_worker_exits_total",
			Help: "Worker process exits by stream",
		}, []string{"stream_id"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hls_worker_transitions_total",
			Help: "Worker status transitions by target status",
		}, []string{"to"}),
		segmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hls_segments_written_total",
			Help: "Media segments observed in each stream's output directory",
		}, []string{"stream_id"}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hls_active_workers",
			Help: "Number of workers currently in the registry",
		}),
		workersByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hls_workers",
			Help: "Registered workers by status",
		}, []string{"status"}),
		encoderFPS: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hls_encoder_fps",
			Help: "Last reported encoding frame rate",
		}, []string{"stream_id"}),
		encoderSpeed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hls_encoder_speed",
			Help: "Last reported encoding speed relative to real time",
		}, []string{"stream_id"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.launchesTotal,
		m.restartsTotal,
		m.exitsTotal,
		m.transitions,
		m.segmentsTotal,
		m.activeWorkers,
		m.workersByStatus,
		m.encoderFPS,
		m.encoderSpeed,
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// SetWorkers refreshes the active-worker gauges from a count per status.
func (m *Metrics) SetWorkers(byStatus map[string]int) {
	m.workersByStatus.Reset()
	total := 0
	for status, n := range byStatus {
		m.workersByStatus.WithLabelValues(status).Set(float64(n))
		total += n
	}
	m.activeWorkers.Set(float64(total))
}

// Subscribe wires the lifecycle counters to bus. The returned func removes
// every subscription.
func (m *Metrics) Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.OnLaunched(func(e events.WorkerLaunched) {
			result := "ok"
			if e.Err != "" {
				result = "error"
			}
			m.launchesTotal.WithLabelValues(result).Inc()
		}),
		bus.OnStateChanged(func(e events.WorkerStateChanged) {
			m.transitions.WithLabelValues(e.To).Inc()
		}),
		bus.OnExited(func(e events.WorkerExited) {
			id := strconv.Itoa(e.StreamID)
			m.exitsTotal.WithLabelValues(id).Inc()
			m.encoderFPS.DeleteLabelValues(id)
			m.encoderSpeed.DeleteLabelValues(id)
		}),
		bus.OnRestart(func(events.RestartRequested) {
			m.restartsTotal.Inc()
		}),
		bus.OnProgress(func(e events.EncoderProgress) {
			id := strconv.Itoa(e.StreamID)
			m.encoderFPS.WithLabelValues(id).Set(e.FPS)
			m.encoderSpeed.WithLabelValues(id).Set(e.Speed)
		}),
		bus.OnSegment(func(e events.SegmentWritten) {
			m.segmentsTotal.WithLabelValues(strconv.Itoa(e.StreamID)).Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		h.ServeHTTP(w, r)
	})
}
