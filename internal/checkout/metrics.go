package checkout

import "github.com/prometheus/client_golang/prometheus"

const outcomeCompleted = "completed"

type Metrics struct {
	outcomes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_outcomes_total",
			Help: "Finished checkout submissions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.outcomes)
	return m
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}
