// Package metrics exposes Prometheus metrics for the site server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records request, search and content reload metrics.
// A nil *Collector is valid and records nothing.
type Collector struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	searches       *prometheus.CounterVec
	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	documents      *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// NewCollector registers the folio metrics on reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_search_queries_total",
			Help: "Search queries by kind and whether they returned hits.",
		}, []string{"kind", "result"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_content_reloads_total",
			Help: "Content reloads by outcome.",
		}, []string{"outcome"}),
		reloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "folio_content_reload_duration_seconds",
			Help:    "Time spent loading and indexing content.",
			Buckets: prometheus.DefBuckets,
		}),
		documents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "folio_content_documents",
			Help: "Loaded documents by collection.",
		}, []string{"collection"}),
		gatherer: reg,
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.searches,
		c.reloads,
		c.reloadDuration,
		c.documents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// RecordRequest counts a finished request. route is the registered path
// pattern, never the raw URL.
func (c *Collector) RecordRequest(route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(route).Observe(d.Seconds())
}

// RecordSearch counts a search query.
func (c *Collector) RecordSearch(kind string, hits int) {
	if c == nil {
		return
	}
	result := "hit"
	if hits == 0 {
		result = "zero"
	}
	c.searches.WithLabelValues(kind, result).Inc()
}

// RecordReload records a content reload and, on success, the loaded counts.
func (c *Collector) RecordReload(d time.Duration, err error, posts, authors, projects int) {
	if c == nil {
		return
	}
	c.reloadDuration.Observe(d.Seconds())
	if err != nil {
		c.reloads.WithLabelValues("error").Inc()
		return
	}
	c.reloads.WithLabelValues("ok").Inc()
	c.documents.WithLabelValues("posts").Set(float64(posts))
	c.documents.WithLabelValues("authors").Set(float64(authors))
	c.documents.WithLabelValues("projects").Set(float64(projects))
}

// Handler returns the scrape handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
