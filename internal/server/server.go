// internal/server/server.go
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/common/config"
	"storefront/internal/common/logger"
)

// Server owns the HTTP listener for the storefront.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout int
	logger          logger.Logger
}

// New wires the router into an http.Server using the configured timeouts.
func New(d Deps) (*Server, error) {
	if d.Config != nil && !d.Config.Server.TemplatesDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := NewRouter(d)
	if err != nil {
		return nil, err
	}

	cfg := d.Config.Server
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      engine,
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          d.Logger.WithFields(map[string]interface{}{"component": "server"}),
	}, nil
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("storefront listening", map[string]interface{}{"address": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", map[string]interface{}{"timeout_ms": s.shutdownTimeout})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(s.shutdownTimeout))
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
