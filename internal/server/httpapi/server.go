// Package httpapi exposes the LocalBiz services over HTTP/JSON with chi.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/localbizsite/localbiz/internal/logging"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/config"
	"github.com/localbizsite/localbiz/internal/server/services"
	"github.com/localbizsite/localbiz/internal/timex"

	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

// Services groups the domain services the handlers call into.
type Services struct {
	Accounts   *services.AccountService
	Businesses *services.BusinessService
	Reviews    *services.ReviewService
	Leads      *services.LeadService
	Media      *services.MediaService
}

type HTTPServer struct {
	config   *config.Config
	svc      Services
	limiter  auth.Limiter
	registry *prometheus.Registry
	clock    timex.Clock
	logger   logging.Logger
	started  time.Time
}

func NewHTTPServer(c *config.Config, l logging.Logger, svc Services, limiter auth.Limiter,
	reg *prometheus.Registry, clock timex.Clock) *HTTPServer {
	if clock == nil {
		clock = timex.RealClock{}
	}
	return &HTTPServer{
		config:   c,
		svc:      svc,
		limiter:  limiter,
		registry: reg,
		clock:    clock,
		logger:   l.With("module", "http_server"),
		started:  clock.Now(),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.config.HTTPAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
