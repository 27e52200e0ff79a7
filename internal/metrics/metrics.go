// Package metrics collects Prometheus metrics for the API and its services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is what handlers, middleware and services record into.
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, status int, latency time.Duration)
	RecordRecipeWrite(op string)
	RecordRelationChange(relation, op string)
	RecordShoppingListExport(items int)
	RecordRateLimited(scope string)
}

type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	recipeWrites    *prometheus.CounterVec
	relationChanges *prometheus.CounterVec
	shoppingExports prometheus.Counter
	shoppingItems   prometheus.Histogram
	rateLimited     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		recipeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_recipe_writes_total",
			Help: "Committed recipe writes by operation.",
		}, []string{"op"}),
		relationChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_relation_changes_total",
			Help: "Favorite, cart and subscription changes.",
		}, []string{"relation", "op"}),
		shoppingExports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_shopping_list_exports_total",
			Help: "Downloaded shopping lists.",
		}),
		shoppingItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_items",
			Help:    "Merged ingredient lines per exported shopping list.",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		}, []string{"scope"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.recipeWrites,
		c.relationChanges,
		c.shoppingExports,
		c.shoppingItems,
		c.rateLimited,
	)
	return c
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, latency time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

func (c *Collector) RecordRecipeWrite(op string) {
	c.recipeWrites.WithLabelValues(op).Inc()
}

func (c *Collector) RecordRelationChange(relation, op string) {
	c.relationChanges.WithLabelValues(relation, op).Inc()
}

func (c *Collector) RecordShoppingListExport(items int) {
	c.shoppingExports.Inc()
	c.shoppingItems.Observe(float64(items))
}

func (c *Collector) RecordRateLimited(scope string) {
	c.rateLimited.WithLabelValues(scope).Inc()
}

// Nop discards everything; used where no registry is wired.
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordRecipeWrite(string)                             {}
func (Nop) RecordRelationChange(string, string)                  {}
func (Nop) RecordShoppingListExport(int)                         {}
func (Nop) RecordRateLimited(string)                             {}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
