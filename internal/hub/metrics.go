package hub

import "github.com/prometheus/client_golang/prometheus"

// Drop reasons.
const (
	dropQueueFull  = "queue_full"
	dropBufferFull = "client_buffer_full"
)

type metrics struct {
	clients   prometheus.Gauge
	published prometheus.Counter
	delivered prometheus.Counter
	dropped   *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "feedline",
			Subsystem: "hub",
			Name:      "clients",
			Help:      "Currently registered WebSocket clients.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "feedline",
			Subsystem: "hub",
			Name:      "events_published_total",
			Help:      "Events accepted into the broadcast queue.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "feedline",
			Subsystem: "hub",
			Name:      "messages_delivered_total",
			Help:      "Event copies placed in client buffers.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedline",
			Subsystem: "hub",
			Name:      "messages_dropped_total",
			Help:      "Events or event copies discarded, by reason.",
		}, []string{"reason"}),
	}
}

// Collectors returns the hub's metrics for registration.
func (h *Hub) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		h.metrics.clients,
		h.metrics.published,
		h.metrics.delivered,
		h.metrics.dropped,
	}
}
