package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
)

// NewRouter wires the tracking endpoints and /metrics behind the logging and recovery middleware.
func NewRouter(h *TrackingHandler, gatherer prometheus.Gatherer, logger logger.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", h.GetStatus)
	mux.HandleFunc("/customers/", h.HandleCustomers)
	mux.HandleFunc("/activity", h.GetActivity)
	mux.HandleFunc("/workers", h.GetWorkersStatus)
	mux.HandleFunc("/healthz", Healthz)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return LoggingMiddleware(logger)(RecoveryMiddleware(logger)(mux))
}
