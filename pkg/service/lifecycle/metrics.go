package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPollAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payd_poll_attempts_total",
		Help: "The total number of gateway status checks",
	})
	metricOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payd_payment_outcomes_total",
		Help: "The total number of finalized payment attempts by outcome",
	}, []string{"outcome"})
	metricPollAborts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payd_poll_aborts_total",
		Help: "The total number of poll runs aborted by safety valve",
	}, []string{"reason"})
	metricActiveControllers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "payd_active_controllers",
		Help: "The number of live payment lifecycle controllers",
	})
)
