package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "biovault/internal/platform/metrics"
)

// NewRouter wires the demo service endpoints. Reads are open; mutations sit
// behind the supplied auth middleware. httpMetrics may be nil.
func NewRouter(h *Handler, requireAuth func(http.Handler) http.Handler, httpMetrics *platformmetrics.HTTP) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/availability", h.HandleAvailability)
	r.Get("/validation", h.HandleValidation)
	r.Get("/vault/{key}", h.HandleGet)
	r.Get("/vault/{key}/string", h.HandleGetString)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Put("/vault/{key}", h.HandleSet)
		r.Delete("/vault/{key}", h.HandleRemove)
	})

	return r
}
