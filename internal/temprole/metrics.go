package temprole

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancymod_temprole_transitions_total",
	Help: "Temporary role lifecycle transitions",
}, []string{"from", "to"})

var armedTimers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "pancymod_temprole_armed_timers",
	Help: "Number of temporary role expiry timers currently armed",
})

var expiryFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pancymod_temprole_expiry_failures_total",
	Help: "Expirations that could not revoke the role",
})

var startFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pancymod_temprole_start_failures_total",
	Help: "Startup recovery attempts that failed and were retried",
})
