package engine

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultConfirmed  = "confirmed"
	resultRolledBack = "rolled_back"
	resultRejected   = "rejected"

	kindOrderCreated  = "order_created"
	kindStatusChanged = "status_changed"

	reasonDuplicate = "duplicate"
	reasonStale     = "stale"
)

// Metrics counts what the engine does. A nil *Metrics is a no-op, so the
// engine works without observability wired in.
type Metrics struct {
	reg *prometheus.Registry

	Mutations   *prometheus.CounterVec
	PushEvents  *prometheus.CounterVec
	PushSkipped *prometheus.CounterVec
	Buffered    prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pedidos",
		Subsystem: "sync",
		Name:      "mutations_total",
		Help:      "Status mutations by settlement result.",
	}, []string{"result"})
	pushEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pedidos",
		Subsystem: "sync",
		Name:      "push_events_total",
		Help:      "Push events received by kind.",
	}, []string{"kind"})
	pushSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pedidos",
		Subsystem: "sync",
		Name:      "push_skipped_total",
		Help:      "Push events not applied, by reason.",
	}, []string{"reason"})
	buffered := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pedidos",
		Subsystem: "sync",
		Name:      "push_buffered_total",
		Help:      "Status events buffered for orders not yet in the store.",
	})

	reg.MustRegister(mutations, pushEvents, pushSkipped, buffered)
	return &Metrics{
		reg:         reg,
		Mutations:   mutations,
		PushEvents:  pushEvents,
		PushSkipped: pushSkipped,
		Buffered:    buffered,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) mutation(result string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(result).Inc()
}

func (m *Metrics) pushEvent(kind string) {
	if m == nil {
		return
	}
	m.PushEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) pushSkipped(reason string) {
	if m == nil {
		return
	}
	m.PushSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) pushBuffered() {
	if m == nil {
		return
	}
	m.Buffered.Inc()
}
