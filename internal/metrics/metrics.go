package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the quiz and HTTP metrics of one process.
type Collector struct {
	registry *prometheus.Registry

	sessionsCreated   *prometheus.CounterVec
	sessionsCompleted prometheus.Counter
	answers           *prometheus.CounterVec
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// New registers every metric on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{
		registry: reg,
		sessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_sessions_created_total",
			Help: "Quiz sessions started, by kind.",
		}, []string{"kind"}),
		sessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_completed_total",
			Help: "Quiz sessions that reached completion.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Answer submissions, by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "endpoint"}),
	}
	reg.MustRegister(c.sessionsCreated, c.sessionsCompleted, c.answers, c.requests, c.requestDuration)
	return c
}

func (c *Collector) SessionCreated(kind string) { c.sessionsCreated.WithLabelValues(kind).Inc() }

func (c *Collector) SessionCompleted() { c.sessionsCompleted.Inc() }

func (c *Collector) AnswerRecorded(outcome string) { c.answers.WithLabelValues(outcome).Inc() }

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Instrument counts and times requests to next under the endpoint label.
func (c *Collector) Instrument(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		c.requests.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		c.requestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
