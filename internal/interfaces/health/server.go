// Package health servidor HTTP mínimo del worker: /health y /metrics.
package health

import (
	"context"
	"net/http"
	"time"
)

// Server expone salud y métricas de procesos sin API pública.
type Server struct {
	srv *http.Server
}

// New construye el servidor. metrics nil omite /metrics.
func New(addr string, metrics http.Handler) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Handler para tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start bloquea hasta Shutdown; devuelve http.ErrServerClosed en un cierre ordenado.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
