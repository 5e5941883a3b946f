package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

const (
	Namespace = "cafe"

	AreaWaiting = "waiting"
	AreaBrewing = "brewing"
	AreaTray    = "tray"
)

var (
	KindLabels = []string{"kind"}
	AreaLabels = []string{"area", "kind"}

	// BrewBuckets span millisecond test brews up to multi-minute production ones.
	BrewBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 20, 30, 45, 60, 90, 120}
)

// Metrics holds every collector the café exports. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ordersPlaced     prometheus.Counter
	ordersExtended   prometheus.Counter
	ordersCompleted  prometheus.Counter
	ordersCollected  prometheus.Counter
	itemsBrewed      *prometheus.CounterVec
	itemsDiscarded   *prometheus.CounterVec
	itemsRepurposed  *prometheus.CounterVec
	itemsCancelled   *prometheus.CounterVec
	brewDuration     *prometheus.HistogramVec
	lockTimeouts     prometheus.Counter
	sinkFailures     *prometheus.CounterVec
	areaItems        *prometheus.GaugeVec
	customersTotal   prometheus.Gauge
	customersWaiting prometheus.Gauge
	activityDropped  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "orders_placed_total",
			Help:      "Orders opened by customers.",
		}),
		ordersExtended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "orders_extended_total",
			Help:      "Items appended to an already open order.",
		}),
		ordersCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "orders_completed_total",
			Help:      "Orders whose full item set reached the tray.",
		}),
		ordersCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "orders_collected_total",
			Help:      "Orders collected from the tray.",
		}),
		itemsBrewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "items_brewed_total",
			Help:      "Items promoted from brewing to the tray.",
		}, KindLabels),
		itemsDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "items_discarded_total",
			Help:      "Brewed items dropped because they were cancelled or removed mid-brew.",
		}, KindLabels),
		itemsRepurposed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "items_repurposed_total",
			Help:      "Items handed from a leaving customer to a waiting one.",
		}, KindLabels),
		itemsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "items_cancelled_total",
			Help:      "Items cancelled when their customer left.",
		}, KindLabels),
		brewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "brew_duration_seconds",
			Help:      "Time a worker held a capacity slot for one item.",
			Buckets:   BrewBuckets,
		}, KindLabels),
		lockTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "disconnect_lock_timeouts_total",
			Help:      "Disconnect cleanups abandoned because a staging lock was not acquired in time.",
		}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "activity_sink_failures_total",
			Help:      "Activity records a sink failed to persist.",
		}, []string{"sink"}),
		areaItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "area_items",
			Help:      "Items currently held in each staging area.",
		}, AreaLabels),
		customersTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "customers",
			Help:      "Customers connected to the café.",
		}),
		customersWaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "customers_waiting",
			Help:      "Customers with an open order.",
		}),
		activityDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "activity_dropped_total",
			Help:      "Snapshots dropped because the activity buffer was full.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ordersPlaced,
			m.ordersExtended,
			m.ordersCompleted,
			m.ordersCollected,
			m.itemsBrewed,
			m.itemsDiscarded,
			m.itemsRepurposed,
			m.itemsCancelled,
			m.brewDuration,
			m.lockTimeouts,
			m.sinkFailures,
			m.areaItems,
			m.customersTotal,
			m.customersWaiting,
			m.activityDropped,
		)
	}
	return m
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *Metrics) OrderExtended() {
	if m == nil {
		return
	}
	m.ordersExtended.Inc()
}

func (m *Metrics) OrderCompleted() {
	if m == nil {
		return
	}
	m.ordersCompleted.Inc()
}

func (m *Metrics) OrderCollected() {
	if m == nil {
		return
	}
	m.ordersCollected.Inc()
}

// BrewFinished records one slot release. delivered tells whether the item reached the tray.
func (m *Metrics) BrewFinished(kind domain.Kind, delivered bool, held time.Duration) {
	if m == nil {
		return
	}
	if delivered {
		m.itemsBrewed.WithLabelValues(kind.String()).Inc()
	} else {
		m.itemsDiscarded.WithLabelValues(kind.String()).Inc()
	}
	m.brewDuration.WithLabelValues(kind.String()).Observe(held.Seconds())
}

func (m *Metrics) ItemRepurposed(kind domain.Kind) {
	if m == nil {
		return
	}
	m.itemsRepurposed.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) ItemCancelled(kind domain.Kind) {
	if m == nil {
		return
	}
	m.itemsCancelled.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) DisconnectLockTimeout() {
	if m == nil {
		return
	}
	m.lockTimeouts.Inc()
}

func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) ActivityDropped() {
	if m == nil {
		return
	}
	m.activityDropped.Inc()
}

// ObserveSnapshot mirrors the aggregate counters into gauges.
func (m *Metrics) ObserveSnapshot(s domain.Snapshot) {
	if m == nil {
		return
	}
	m.customersTotal.Set(float64(s.TotalCustomers))
	m.customersWaiting.Set(float64(s.WaitingCustomers))
	for area, counts := range map[string]domain.DrinkCount{
		AreaWaiting: s.Waiting,
		AreaBrewing: s.Brewing,
		AreaTray:    s.Tray,
	} {
		for _, k := range domain.Kinds {
			m.areaItems.WithLabelValues(area, k.String()).Set(float64(counts.Of(k)))
		}
	}
}
