package monitoring

import (
	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exposes the real-time core's operational metrics.
type PrometheusCollector struct {
	connectionsActive  prometheus.Gauge
	groupsActive       prometheus.Gauge
	eventsPublished    *prometheus.CounterVec
	fanoutSize         prometheus.Histogram
	messagesPersisted  prometheus.Counter
	commentsPersisted  prometheus.Counter
	notificationsTotal prometheus.Counter
	streamViewers      *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pulsegram_connections_active",
			Help: "Number of registered WebSocket connections",
		}),

		groupsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pulsegram_groups_active",
			Help: "Number of non-empty broadcast groups",
		}),

		eventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsegram_events_published_total",
			Help: "Events published to groups, by event type",
		}, []string{"event_type"}),

		fanoutSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulsegram_fanout_size",
			Help:    "Number of recipients per group publish",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),

		messagesPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulsegram_chat_messages_total",
			Help: "Chat messages persisted through the real-time layer",
		}),

		commentsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulsegram_live_comments_total",
			Help: "Live stream comments persisted through the real-time layer",
		}),

		notificationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulsegram_notifications_created_total",
			Help: "Notification records created by the fan-out service",
		}),

		streamViewers: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pulsegram_stream_viewers",
			Help: "Current viewer count per live stream",
		}, []string{"stream_id"}),
	}
}

func (c *PrometheusCollector) ConnectionOpened() { c.connectionsActive.Inc() }
func (c *PrometheusCollector) ConnectionClosed() { c.connectionsActive.Dec() }

func (c *PrometheusCollector) GroupCount(n int) { c.groupsActive.Set(float64(n)) }

func (c *PrometheusCollector) EventPublished(eventType string, fanout int) {
	c.eventsPublished.WithLabelValues(eventType).Inc()
	c.fanoutSize.Observe(float64(fanout))
}

func (c *PrometheusCollector) MessagePersisted()    { c.messagesPersisted.Inc() }
func (c *PrometheusCollector) CommentPersisted()    { c.commentsPersisted.Inc() }
func (c *PrometheusCollector) NotificationCreated() { c.notificationsTotal.Inc() }

func (c *PrometheusCollector) ViewerCount(stream domain.StreamID, count int) {
	c.streamViewers.WithLabelValues(string(stream)).Set(float64(count))
}

var _ ports.MetricsRecorder = (*PrometheusCollector)(nil)
