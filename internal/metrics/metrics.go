// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loto"

// Metrics is a registry plus the collectors the engine and transports update.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	grpcRequests *prometheus.CounterVec

	historyDraws    prometheus.Gauge
	historyRejected prometheus.Gauge
	reloads         *prometheus.CounterVec

	gamesGenerated prometheus.Counter
	gamesShort     prometheus.Counter
	gamesForced    prometheus.Counter

	samplerRuns      *prometheus.CounterVec
	samplerSampled   prometheus.Counter
	samplerDuration  prometheus.Histogram
	latestFetches    *prometheus.CounterVec
	ticketsPersisted prometheus.Counter
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "inflight_requests", Help: "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "requests_total", Help: "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "request_duration_seconds", Help: "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"method", "route"}),
		grpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "grpc",
			Name: "requests_total", Help: "Total number of gRPC calls handled.",
		}, []string{"method", "code"}),
		historyDraws: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "history",
			Name: "draws", Help: "Valid draws in the current history snapshot.",
		}),
		historyRejected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "history",
			Name: "rejected_rows", Help: "Rows rejected while loading the current snapshot.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "history",
			Name: "reloads_total", Help: "History reload attempts.",
		}, []string{"result"}),
		gamesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "generator",
			Name: "games_total", Help: "Games produced by the balanced generator.",
		}),
		gamesShort: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "generator",
			Name: "shortfall_total", Help: "Requested games the generator could not produce.",
		}),
		gamesForced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "generator",
			Name: "forced_total", Help: "Games completed by force-filling.",
		}),
		samplerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sampler",
			Name: "runs_total", Help: "Sampler runs by outcome.",
		}, []string{"result"}),
		samplerSampled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sampler",
			Name: "candidates_sampled_total", Help: "Random candidates drawn by the sampler.",
		}),
		samplerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "sampler",
			Name: "run_duration_seconds", Help: "Duration of sampler runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		latestFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "latest",
			Name: "fetches_total", Help: "Latest draw lookups by outcome.",
		}, []string{"result"}),
		ticketsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger",
			Name: "tickets_total", Help: "Tickets written to the ledger.",
		}),
	}
	m.Registry.MustRegister(
		m.httpInFlight, m.httpRequests, m.httpDuration, m.grpcRequests,
		m.historyDraws, m.historyRejected, m.reloads,
		m.gamesGenerated, m.gamesShort, m.gamesForced,
		m.samplerRuns, m.samplerSampled, m.samplerDuration,
		m.latestFetches, m.ticketsPersisted,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler is a mux middleware recording per-route HTTP metrics.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeName(r)
		if route == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveGRPC(method, code string) {
	if m == nil {
		return
	}
	m.grpcRequests.WithLabelValues(method, code).Inc()
}

// ObserveHistory records a reload attempt and, on success, the snapshot size.
func (m *Metrics) ObserveHistory(draws, rejected int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
	m.historyDraws.Set(float64(draws))
	m.historyRejected.Set(float64(rejected))
}

func (m *Metrics) ObserveGenerate(produced, shortfall, forced int) {
	if m == nil {
		return
	}
	m.gamesGenerated.Add(float64(produced))
	m.gamesShort.Add(float64(shortfall))
	m.gamesForced.Add(float64(forced))
}

func (m *Metrics) ObserveSample(sampled int, truncated bool, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "complete"
	switch {
	case err != nil:
		result = "error"
	case truncated:
		result = "truncated"
	}
	m.samplerRuns.WithLabelValues(result).Inc()
	m.samplerSampled.Add(float64(sampled))
	m.samplerDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveLatest(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.latestFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTicket() {
	if m == nil {
		return
	}
	m.ticketsPersisted.Inc()
}

// routeName prefers the mux path template so ids do not explode cardinality.
func routeName(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
