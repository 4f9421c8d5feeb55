package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	eventOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_operations_total",
			Help: "Event registry operations by outcome",
		},
		[]string{"operation", "status"},
	)

	allocationOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_operations_total",
			Help: "Allocation engine operations by channel and outcome",
		},
		[]string{"channel", "operation", "status"},
	)

	publishedEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "published_events_total",
			Help: "Current number of published events",
		},
	)
)

// TrackEventOperation counts an event registry operation outcome.
func TrackEventOperation(operation, status string) {
	eventOperations.WithLabelValues(operation, status).Inc()
}

// TrackAllocation counts an allocation engine operation outcome.
func TrackAllocation(channel, operation, status string) {
	allocationOperations.WithLabelValues(channel, operation, status).Inc()
}

// Monitor periodically refreshes gauges from the redis mirror of published
// events.
type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}
	go monitor.collectMetrics()
	return monitor
}

func (m *Monitor) collectMetrics() {
	if m.redis == nil {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		count, err := m.redis.SCard(ctx, "events:published").Result()
		if err != nil {
			continue
		}
		publishedEvents.Set(float64(count))
	}
}
