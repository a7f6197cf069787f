package intake

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "splereg_submissions_total",
		Help: "Registration submissions by outcome.",
	},
	[]string{"result"},
)
