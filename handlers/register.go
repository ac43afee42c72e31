package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterHandlers wires HTTPServer's methods onto e. Routed endpoints get
// the header middleware (CORS, no-cache, timestamp) plus the OpenAPI body
// validator on the two POST routes; /ping and /metrics are exempt, per
// spec §4.5.4 and SPEC_FULL.md §4.1. gatherer is the same registry
// RoutingState/Reclaimer registered their metrics on.
func RegisterHandlers(e *echo.Echo, h *HTTPServer, headerMiddleware []echo.MiddlewareFunc, validateBody echo.MiddlewareFunc, metricsPath string, gatherer prometheus.Gatherer) {
	routed := e.Group("", headerMiddleware...)
	routed.POST("/start_agent", h.StartAgent, validateBody)
	routed.POST("/stop_agent", h.StopAgent, validateBody)
	routed.GET("/health", h.Health)

	e.GET("/ping", h.Ping)
	e.GET(metricsPath, echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
