package service

import (
	"context"
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/platform/logger"
	"harborlist/internal/services/queue/domain"

	"github.com/prometheus/client_golang/prometheus"
)

var depthDesc = prometheus.NewDesc(
	"harborlist_moderation_queue_depth",
	"Open moderation queue entries by priority",
	[]string{"priority"},
	nil,
)

// DepthReader is the read the collector needs
type DepthReader interface {
	Depth(ctx context.Context) ([]domain.Depth, error)
}

// DepthCollector reads open queue depth from the database on each scrape
type DepthCollector struct {
	r       DepthReader
	timeout time.Duration
}

// NewDepthCollector returns a collector over r
func NewDepthCollector(r DepthReader) *DepthCollector {
	return &DepthCollector{r: r, timeout: 2 * time.Second}
}

// Describe sends the metric descriptor to the channel
func (c *DepthCollector) Describe(ch chan<- *prometheus.Desc) { ch <- depthDesc }

// Collect emits one gauge per priority, zero filled
func (c *DepthCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	ds, err := c.r.Depth(ctx)
	if err != nil {
		logger.Named("queue").Warn().Err(err).Msg("queue depth scrape failed")
		return
	}
	counts := make(map[listing.Priority]int, len(Priorities))
	for _, d := range ds {
		counts[d.Priority] = d.Count
	}
	for _, p := range Priorities {
		ch <- prometheus.MustNewConstMetric(depthDesc, prometheus.GaugeValue, float64(counts[p]), string(p))
	}
}
