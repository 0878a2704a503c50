// Package stats exposes business-level gauges computed from profile data.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricMentorsCount  = "mentors_count"
	MetricStudentsCount = "students_count"
)

// Counter reports the number of active profiles of each kind.
type Counter interface {
	CountMentors(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)
}

// Collector is a prometheus.Collector that reads profile counts at scrape
// time. A failed count is logged and the gauge is omitted from that scrape.
type Collector struct {
	counter Counter
	timeout time.Duration
	logger  *slog.Logger

	mentorsDesc  *prometheus.Desc
	studentsDesc *prometheus.Desc
}

// NewCollector creates a Collector backed by counter.
func NewCollector(counter Counter, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		counter: counter,
		timeout: 5 * time.Second,
		logger:  logger,
		mentorsDesc: prometheus.NewDesc(MetricMentorsCount,
			"Number of active mentors", nil, nil),
		studentsDesc: prometheus.NewDesc(MetricStudentsCount,
			"Number of active students", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.mentorsDesc
	ch <- c.studentsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if n, err := c.counter.CountMentors(ctx); err != nil {
		c.logger.Warn("failed to count mentors", slog.String("error", err.Error()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.mentorsDesc, prometheus.GaugeValue, float64(n))
	}

	if n, err := c.counter.CountUsers(ctx); err != nil {
		c.logger.Warn("failed to count students", slog.String("error", err.Error()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.studentsDesc, prometheus.GaugeValue, float64(n))
	}
}
