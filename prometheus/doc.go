// Package prometheus exports rawmem metrics to Prometheus.
//
// MetricsCollector receives events from a hunk (pass it with
// rawmem.WithMetricsCollector) and HunkCollector reads a hunk's layout on
// every scrape:
//
//	mc := prometheus.NewMetricsCollector("game")
//	h, _ := rawmem.Open(64<<20, rawmem.WithMetricsCollector(mc))
//
//	reg := prom.NewRegistry()
//	reg.MustRegister(mc, prometheus.NewHunkCollector("game", h, nil))
package prometheus
