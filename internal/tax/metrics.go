package tax

import "github.com/prometheus/client_golang/prometheus"

var (
	ratingAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tax",
			Name:      "rating_attempts_total",
			Help:      "Rating service call attempts by outcome",
		},
		[]string{"outcome"},
	)
	applyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tax",
			Name:      "apply_failure_total",
			Help:      "Tax applications that exhausted all attempts and degraded to tax-unknown",
		},
	)
	unusableResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tax",
			Name:      "unusable_response_total",
			Help:      "Responses discarded because they carried an error message",
		},
	)
	miscalculations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tax",
			Name:      "miscalculation_total",
			Help:      "Apportionment reconciliation failures",
		},
	)
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeOpen    = "breaker_open"
)

func init() {
	prometheus.MustRegister(ratingAttempts, applyFailures, unusableResponses, miscalculations)
}
