package cart

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeRemoved ChangeKind = "removed"
	ChangeCleared ChangeKind = "cleared"
)

type ChangeEvent struct {
	SessionID string
	Kind      ChangeKind
	ProductID string
	ItemCount int
}

// Observer is notified after every successful cart mutation.
type Observer interface {
	CartChanged(ctx context.Context, ev ChangeEvent)
}

type ObserverFunc func(ctx context.Context, ev ChangeEvent)

func (f ObserverFunc) CartChanged(ctx context.Context, ev ChangeEvent) {
	f(ctx, ev)
}

// MetricsObserver counts mutations by kind.
type MetricsObserver struct {
	mutations *prometheus.CounterVec
}

func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	m := &MetricsObserver{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Successful cart mutations by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.mutations)
	return m
}

func (m *MetricsObserver) CartChanged(_ context.Context, ev ChangeEvent) {
	m.mutations.WithLabelValues(string(ev.Kind)).Inc()
}

type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) CartChanged(ctx context.Context, ev ChangeEvent) {
	o.logger.DebugContext(ctx, "cart changed",
		"session_id", ev.SessionID,
		"kind", ev.Kind,
		"product_id", ev.ProductID,
		"item_count", ev.ItemCount,
	)
}
