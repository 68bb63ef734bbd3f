package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command outcomes recorded by Metrics.
const (
	outcomeSuccess      = "success"
	outcomeInvalidInput = "invalid_input"
	outcomeMalformed    = "malformed"
	outcomeUpstream     = "upstream"
	outcomeInternal     = "internal"
)

// Metrics holds the scenario pipeline counters. A nil Registerer yields
// working but unregistered collectors.
type Metrics struct {
	commands      *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	toneFallbacks prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scenario_commands_total",
			Help: "Scenario commands handled, partitioned by outcome.",
		}, []string{"outcome"}),
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scenario_generation_attempts_total",
			Help: "Scenario generation attempts, partitioned by result.",
		}, []string{"result"}),
		toneFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "scenario_tone_fallbacks_total",
			Help: "Tone analyses that fell back to the default tone.",
		}),
	}
}

func (m *Metrics) commandHandled(outcome string) {
	m.commands.WithLabelValues(outcome).Inc()
}

func (m *Metrics) attempt(result string) {
	m.attempts.WithLabelValues(result).Inc()
}

func (m *Metrics) toneFallback() {
	m.toneFallbacks.Inc()
}
