package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exports feed stats as Prometheus metrics.
type PrometheusCollector struct {
	feedsTotal     *prometheus.CounterVec
	cardsTotal     prometheus.Counter
	candidateCount prometheus.Histogram
	duration       prometheus.Histogram
}

// NewPrometheusCollector creates and registers the feed metrics on the
// given registerer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		feedsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloomfeed",
			Name:      "feeds_generated_total",
			Help:      "Feed pages generated, by outcome.",
		}, []string{"outcome"}),
		cardsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bloomfeed",
			Name:      "cards_served_total",
			Help:      "Cards returned across all feed pages.",
		}),
		candidateCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bloomfeed",
			Name:      "zone_candidates",
			Help:      "Serendipity-zone candidates considered per feed.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bloomfeed",
			Name:      "generation_seconds",
			Help:      "Feed generation latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.feedsTotal, c.cardsTotal, c.candidateCount, c.duration)
	return c
}

// RecordFeed exports one feed-generation call.
func (c *PrometheusCollector) RecordFeed(stats FeedStats) {
	outcome := "serendipity"
	switch {
	case stats.Exhausted:
		outcome = "exhausted"
	case stats.Fallback:
		outcome = "fallback"
	}

	c.feedsTotal.WithLabelValues(outcome).Inc()
	c.cardsTotal.Add(float64(stats.ReturnedCount))
	c.candidateCount.Observe(float64(stats.CandidateCount))
	c.duration.Observe(stats.Duration.Seconds())
}
