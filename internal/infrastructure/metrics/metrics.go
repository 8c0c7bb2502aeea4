package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set holds the delivery metrics, labeled by destination.
type Set struct {
	delivered     *prometheus.CounterVec
	abandoned     *prometheus.CounterVec
	staleDrops    *prometheus.CounterVec
	backlogDrops  *prometheus.CounterVec
	enqueueDrops  *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	queueDepth    *prometheus.GaugeVec
}

// New creates and registers the metric set on the given registerer.
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wxuplink_records_delivered_total",
			Help: "Records successfully written to the destination.",
		}, []string{"destination"}),
		abandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wxuplink_records_abandoned_total",
			Help: "Records dropped after exhausting delivery retries.",
		}, []string{"destination"}),
		staleDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wxuplink_records_stale_dropped_total",
			Help: "Records dropped for exceeding the max_age threshold.",
		}, []string{"destination"}),
		backlogDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wxuplink_records_backlog_dropped_total",
			Help: "Records discarded oldest-first to bound the backlog.",
		}, []string{"destination"}),
		enqueueDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wxuplink_records_enqueue_dropped_total",
			Help: "Records the binding adapter could not enqueue (queue full).",
		}, []string{"destination"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wxuplink_post_attempts_total",
			Help: "Delivery attempts, including retries.",
		}, []string{"destination"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wxuplink_queue_depth",
			Help: "Records currently waiting in the delivery queue.",
		}, []string{"destination"}),
	}

	reg.MustRegister(
		s.delivered, s.abandoned, s.staleDrops, s.backlogDrops,
		s.enqueueDrops, s.attempts, s.queueDepth,
	)

	return s
}

// ForDestination curries the set to a single destination's series.
func (s *Set) ForDestination(name string) *Destination {
	return &Destination{
		Delivered:    s.delivered.WithLabelValues(name),
		Abandoned:    s.abandoned.WithLabelValues(name),
		StaleDrops:   s.staleDrops.WithLabelValues(name),
		BacklogDrops: s.backlogDrops.WithLabelValues(name),
		EnqueueDrops: s.enqueueDrops.WithLabelValues(name),
		Attempts:     s.attempts.WithLabelValues(name),
		QueueDepth:   s.queueDepth.WithLabelValues(name),
	}
}

// Destination is the metric set bound to one destination.
type Destination struct {
	Delivered    prometheus.Counter
	Abandoned    prometheus.Counter
	StaleDrops   prometheus.Counter
	BacklogDrops prometheus.Counter
	EnqueueDrops prometheus.Counter
	Attempts     prometheus.Counter
	QueueDepth   prometheus.Gauge
}
