package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zenort/pkg/fastjson"
)

// Health reports the live task count for /healthz.
type Health interface {
	Running() int64
}

// Router serves /metrics and /healthz.
func Router(h Health) http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		body := map[string]interface{}{"status": "ok"}
		if h != nil {
			body["tasks_running"] = h.Running()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = fastjson.NewEncoder(w).Encode(body)
	})
	return r
}
