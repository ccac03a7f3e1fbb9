/*
Package metrics exposes the job scheduler's Prometheus metrics: bucket
sizes, scheduling decisions and latency, peer query timeouts, and actor
terminations. Every metric is labeled by job name so an operator can see
one job actor's behavior alongside its peers on the same dashboard.

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

The Timer helper times a handler call and reports it to a histogram:

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ScheduleLatency, jobName, "local")
*/
package metrics
