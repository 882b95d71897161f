// Package observability holds the Prometheus collectors for the exercise tracker.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "domain",
		Name:      "users_created_total",
		Help:      "Number of users registered.",
	})
	exercisesLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "domain",
		Name:      "exercises_logged_total",
		Help:      "Number of exercises recorded.",
	})
	validationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "domain",
		Name:      "validation_failures_total",
		Help:      "Rejected requests grouped by offending field.",
	}, []string{"field"})
	logEntries = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "domain",
		Name:      "log_entries_returned",
		Help:      "Number of entries returned per exercise log request.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
	})
	lastExerciseGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "last_exercise_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise persisted.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests grouped by route pattern, method and status code.",
	}, []string{"route", "method", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency grouped by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(usersCreated, exercisesLogged, validationFailures, logEntries, lastExerciseGauge, httpRequests, httpDuration)
}

// DomainRecorder feeds domain outcomes into Prometheus.
type DomainRecorder struct {
	now func() time.Time
}

// NewDomainRecorder constructs a DomainRecorder.
func NewDomainRecorder() *DomainRecorder {
	return &DomainRecorder{now: time.Now}
}

// UserCreated increments the registration counter.
func (r *DomainRecorder) UserCreated() {
	usersCreated.Inc()
}

// ExerciseLogged increments the exercise counter and moves the persistence watermark.
func (r *DomainRecorder) ExerciseLogged(time.Time) {
	exercisesLogged.Inc()
	lastExerciseGauge.Set(float64(r.now().Unix()))
}

// ValidationFailed counts a rejected field.
func (r *DomainRecorder) ValidationFailed(field string) {
	validationFailures.WithLabelValues(field).Inc()
}

// LogServed observes the size of a returned log.
func (r *DomainRecorder) LogServed(entries int) {
	logEntries.Observe(float64(entries))
}

// ObserveHTTP records a finished request.
func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, statusLabel(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func statusLabel(status int) string {
	if status == 0 {
		status = 200
	}
	return strconv.Itoa(status)
}
