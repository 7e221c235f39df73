package discord

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dispatchCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancymod_dispatch_total",
	Help: "Number of interactions dispatched, by handler and outcome",
}, []string{"kind", "handler", "outcome"})

var dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pancymod_dispatch_duration_seconds",
	Help:    "Time spent running interaction handlers",
	Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
}, []string{"kind"})
