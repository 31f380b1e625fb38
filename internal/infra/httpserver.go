package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer owns the http.Server lifecycle: blocking Start, graceful Shutdown.
type HTTPServer struct {
	srv *http.Server
}

// NewHTTPServer applies the configured timeouts and binds to the configured port.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.HTTPReadTimeout,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
	}
}

// Addr returns the listen address.
func (s *HTTPServer) Addr() string {
	return s.srv.Addr
}

// Start blocks serving requests until the listener closes.
func (s *HTTPServer) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until the context expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
