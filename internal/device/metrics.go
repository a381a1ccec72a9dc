package device

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"nnrunner/internal/offload"
)

// Metrics exports session and message counters. It implements
// offload.EventPublisher. A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessions     *prometheus.CounterVec
	layerSeconds *prometheus.HistogramVec
	busy         prometheus.Counter
	messages     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nnrunner",
				Subsystem: "device",
				Name:      "sessions_total",
				Help:      "Offload sessions by outcome",
			},
			[]string{"outcome"},
		),
		layerSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nnrunner",
				Subsystem: "device",
				Name:      "layer_seconds",
				Help:      "Layer execution time in seconds",
				Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
			},
			[]string{"layer"},
		),
		busy: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nnrunner",
			Subsystem: "device",
			Name:      "session_busy_total",
			Help:      "Requests rejected because a session was running",
		}),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nnrunner",
				Subsystem: "device",
				Name:      "messages_total",
				Help:      "Inbound messages by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
	}
	reg.MustRegister(m.sessions, m.layerSeconds, m.busy, m.messages)
	return m
}

// Publish updates collectors from a controller event.
func (m *Metrics) Publish(e offload.Event) {
	if m == nil {
		return
	}
	switch e.Name {
	case offload.EventSessionDone:
		m.sessions.WithLabelValues("completed").Inc()
	case offload.EventSessionFailed:
		m.sessions.WithLabelValues("failed").Inc()
	case offload.EventSessionBusy:
		m.busy.Inc()
	case offload.EventLayerDone:
		layer, _ := e.Fields["layer"].(int)
		secs, _ := e.Fields["seconds"].(float64)
		m.layerSeconds.WithLabelValues(strconv.Itoa(layer)).Observe(secs)
	}
}

func (m *Metrics) observeMessage(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.messages.WithLabelValues(kind, outcome).Inc()
}
