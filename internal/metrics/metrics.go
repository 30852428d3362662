// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Article outcomes recorded by ObserveArticle.
const (
	ArticleSucceeded = "succeeded"
	ArticleFailed    = "failed"
)

// Registry holds every collector of this package.
var Registry = prometheus.NewRegistry()

var (
	fetchesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_fetches_total",
			Help: "Total number of page fetches, labeled by HTTP status code or \"error\".",
		},
		[]string{"code"},
	)

	seedsSkippedTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_seeds_skipped_total",
			Help: "Total number of listing pages abandoned after a failed fetch.",
		},
	)

	articlesAcceptedTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_articles_accepted_total",
			Help: "Total number of article URLs accepted into the frontier.",
		},
	)

	articlesParsedTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_articles_parsed_total",
			Help: "Total number of article pages processed, labeled by outcome.",
		},
		[]string{"status"},
	)

	httpRequestDurationSeconds = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of metrics endpoint latencies, labeled by method, route and code.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "route", "code"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler returns an http.Handler exposing Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// ObserveFetch counts a fetch attempt. A zero code records a transport error.
func ObserveFetch(code int) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	fetchesTotal.WithLabelValues(label).Inc()
}

// ObserveSeedSkipped counts an abandoned listing page.
func ObserveSeedSkipped() {
	seedsSkippedTotal.Inc()
}

// ObserveArticleAccepted counts an article URL accepted into the frontier.
func ObserveArticleAccepted() {
	articlesAcceptedTotal.Inc()
}

// ObserveArticle counts a processed article by outcome.
func ObserveArticle(status string) {
	articlesParsedTotal.WithLabelValues(status).Inc()
}

func observeHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestDurationSeconds.WithLabelValues(method, route, strconv.Itoa(code)).Observe(duration.Seconds())
}
