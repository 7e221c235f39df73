package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancymod_moderation_actions_total",
	Help: "Number of moderation actions, by action and outcome",
}, []string{"action", "outcome"})

var purgedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancymod_purged_messages_total",
	Help: "Number of messages removed by purges, by delete method",
}, []string{"method"})

var roleChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancymod_role_changes_total",
	Help: "Number of member role changes, by direction and result",
}, []string{"direction", "result"})
