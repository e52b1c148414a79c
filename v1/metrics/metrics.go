package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// LockAcquireCounter tracks lock attempts by lock kind and outcome
	// (acquired, rejected, error).
	LockAcquireCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_lock_acquire_total",
		Help: "Total number of lock acquisition attempts",
	}, []string{"kind", "result"})
	// LockReleaseCounter tracks release calls by lock kind.
	LockReleaseCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_lock_release_total",
		Help: "Total number of lock releases",
	}, []string{"kind"})
	// QuorumVoteFailures counts nodes that failed to answer a quorum vote or release.
	QuorumVoteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_quorum_node_failures_total",
		Help: "Total number of quorum node round trips that failed",
	})
	// LimiterCounter tracks rate limiter decisions by limiter kind and outcome
	// (allowed, rejected, error).
	LimiterCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_ratelimit_decisions_total",
		Help: "Total number of rate limiter decisions",
	}, []string{"kind", "result"})
)

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// RegisterCoreMetrics registers warden metrics on the provided registry.
func RegisterCoreMetrics(reg prometheus.Registerer) {
	reg.MustRegister(LockAcquireCounter, LockReleaseCounter, QuorumVoteFailures, LimiterCounter)
}

// Outcome maps a boolean decision and error to a result label.
func Outcome(ok bool, err error, yes, no string) string {
	switch {
	case err != nil:
		return "error"
	case ok:
		return yes
	}
	return no
}
