package teenastro

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	commandsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teenastro_commands_total",
			Help: "Commands written to the mount controller",
		},
		[]string{"kind"},
	)

	commandErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teenastro_command_errors_total",
			Help: "Commands that failed on the channel or were rejected",
		},
		[]string{"kind", "reason"},
	)

	pollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "teenastro_poll_duration_seconds",
		Help:    "Duration of a full status poll cycle",
		Buckets: prometheus.DefBuckets,
	})

	pollFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "teenastro_poll_failures_total",
		Help: "Poll cycles aborted by a failed position read",
	})
)

// RegisterMetrics registers the driver collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{commandsSent, commandErrors, pollDuration, pollFailures} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
