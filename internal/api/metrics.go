package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/metrics"
	"github.com/AaronLay10/SentientPlayer/internal/version"
)

var (
	metricsOnce sync.Once
	startTime   time.Time
)

// InitMetrics records the start time and registers the process-level
// collectors. Safe to call more than once.
func InitMetrics() {
	metricsOnce.Do(func() {
		startTime = time.Now()
		metrics.BuildInfo.WithLabelValues(version.Version).Set(1)

		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sentient_player_uptime_seconds",
			Help: "Number of seconds since the player started",
		}, func() float64 {
			return time.Since(startTime).Seconds()
		})

		promauto.NewCounterFunc(prometheus.CounterOpts{
			Name: "sentient_player_events_total",
			Help: "Total number of events emitted since startup",
		}, func() float64 {
			return float64(events.TotalCount())
		})
	})
}

// metricsHandler serves the Prometheus exposition format.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
