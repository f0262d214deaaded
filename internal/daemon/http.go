package daemon

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router serves /healthz, /status, optionally /metrics, and the client directory.
func (d *Daemon) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		st := d.Status()
		code := http.StatusOK
		if st.LastError != "" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(st)
	})
	if d.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.opts.Metrics)
	}
	if d.opts.ClientDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(d.opts.ClientDir)))
	}
	return r
}
