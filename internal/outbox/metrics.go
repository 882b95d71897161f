package outbox

import "github.com/prometheus/client_golang/prometheus"

// Outbox collectors are labelled by event type so user.created and
// exercise.logged traffic can be told apart.
var (
	deliveredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Outbox events published to Kafka, by event type.",
	}, []string{"event_type"})

	failedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Outbox events whose delivery failed, by event type.",
	}, []string{"event_type"})

	dlqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "outbox",
		Name:      "events_dlq_total",
		Help:      "Outbox events parked in outbox_dlq, by event type.",
	}, []string{"event_type"})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent delivering and marking a non-empty outbox batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter, dlqCounter, batchDuration)
}

// countByEventType adds one to counter per message under its event type.
func countByEventType(counter *prometheus.CounterVec, messages []Message) {
	for _, msg := range messages {
		counter.WithLabelValues(msg.EventType).Inc()
	}
}
