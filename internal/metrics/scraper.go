package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scrapeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumeforge",
			Subsystem: "scraper",
			Name:      "scrapes_total",
			Help:      "职位抓取总数。",
		},
		[]string{"source", "outcome"},
	)

	scrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumeforge",
			Subsystem: "scraper",
			Name:      "scrape_duration_seconds",
			Help:      "单次职位抓取耗时分布（秒）。",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"source"},
	)
)

// ObserveScrape 记录一次抓取的来源、结果与耗时。
// outcome 取 "ok" 或失败类别名（network/status/blocked/no_content）。
func ObserveScrape(source, outcome string, elapsed time.Duration) {
	scrapeTotal.WithLabelValues(source, outcome).Inc()
	scrapeDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}
