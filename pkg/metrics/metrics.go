package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	AlertsTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesignal_alerts_triggered_total",
		Help: "Total number of alerts triggered",
	})

	AlertsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesignal_alerts_cancelled_total",
		Help: "Total number of alerts cancelled",
	})

	AlertsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesignal_alerts_dispatched_total",
		Help: "Total number of alerts dispatched to emergency contacts",
	})

	AlertsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesignal_alerts_resolved_total",
		Help: "Total number of alerts resolved",
	})

	SamplesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safesignal_location_samples_published_total",
		Help: "Total number of location samples published to the stream hub",
	})

	DispatchRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safesignal_dispatch_records_total",
		Help: "Dispatch records created, by channel and delivery status",
	}, []string{"channel", "status"})

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "safesignal_websocket_connections",
		Help: "Currently open websocket connections",
	})

	MonitorSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "safesignal_monitor_subscribers",
		Help: "Currently subscribed monitor connections across all alerts",
	})
)

// Handler exposes the prometheus scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
