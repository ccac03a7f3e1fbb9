package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BucketQueued tracks the queued count of each job's per-node bucket.
	BucketQueued = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobsched_bucket_queued",
			Help: "Queued task count per job bucket",
		},
		[]string{"job", "node"},
	)

	// BucketLifetime tracks the lifetime placement count of each job's
	// per-node bucket. It is a historical load hint, not an active count,
	// and resets only when the bucket is rebuilt on topology change.
	BucketLifetime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobsched_bucket_lifetime",
			Help: "Lifetime placement count per job bucket",
		},
		[]string{"job", "node"},
	)

	// RunningTasks tracks the size of a job's running set.
	RunningTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobsched_running_tasks",
			Help: "Number of tasks currently running for a job",
		},
		[]string{"job"},
	)

	// ScheduleDecisionsTotal counts ScheduleLocal/ScheduleRemote outcomes.
	ScheduleDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsched_schedule_decisions_total",
			Help: "Total number of scheduling decisions by result",
		},
		[]string{"job", "phase", "result"},
	)

	// ScheduleLatency times ScheduleLocal/ScheduleRemote handler calls.
	ScheduleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobsched_schedule_latency_seconds",
			Help:    "Time taken to answer a scheduling call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job", "phase"},
	)

	// PeerQueryTimeoutsTotal counts GetEmptyNodes calls to peer job actors
	// that exceeded their 500ms deadline.
	PeerQueryTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsched_peer_query_timeouts_total",
			Help: "Total number of peer GetEmptyNodes calls that timed out",
		},
		[]string{"peer_job"},
	)

	// ActorTerminationsTotal counts job actor terminations by cause.
	ActorTerminationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsched_actor_terminations_total",
			Help: "Total number of job actor terminations by cause",
		},
		[]string{"job", "cause"},
	)
)

func init() {
	prometheus.MustRegister(BucketQueued)
	prometheus.MustRegister(BucketLifetime)
	prometheus.MustRegister(RunningTasks)
	prometheus.MustRegister(ScheduleDecisionsTotal)
	prometheus.MustRegister(ScheduleLatency)
	prometheus.MustRegister(PeerQueryTimeoutsTotal)
	prometheus.MustRegister(ActorTerminationsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
