// Package middleware provides observability for the stories application:
// Prometheus metrics fed by the router, page controller, offline sync and
// WebSocket host, and OpenTelemetry tracing for HTTP requests.
//
// # Metrics
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r := router.New(router.Config{Observer: m, ...})
//	c := page.NewController(page.ControllerConfig{Observer: m, ...})
//	mux.Handle("/metrics", m.Handler())
//
// Collected series (namespace "storyapp" by default):
//   - navigations_total{route,outcome}
//   - page_render_duration_seconds{page}
//   - page_render_errors_total{page}
//   - auth_redirects_total{page}
//   - active_sessions
//   - offline_sync_total{result}
//   - http_requests_total{route,code}
//
// # Tracing
//
//	mux.Use(middleware.Tracing(middleware.WithTracerName("storyapp")))
//
// The tracer comes from the global OpenTelemetry provider; configure it in
// main before starting the server.
package middleware
