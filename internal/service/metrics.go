package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TaskMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_mutations_total",
			Help: "Persisted task mutations by operation",
		},
		[]string{"op"},
	)
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Register and login attempts by outcome",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(TaskMutations)
	prometheus.MustRegister(AuthAttempts)
}
