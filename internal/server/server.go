// Package server exposes the stats page and the aggregation API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"garmin-zones/internal/daily"
	"garmin-zones/internal/report"
	"garmin-zones/internal/respcache"
)

const (
	// stats pages walk weeks of history on a cold cache
	writeTimeout    = 2 * time.Minute
	shutdownTimeout = 5 * time.Second
)

// Aggregations is the day-level query surface used by the API routes
type Aggregations interface {
	GetDay(ctx context.Context, date string) (daily.Day, error)
	CalculateLoad(ctx context.Context, numDays, startDaysAgo int) (int, error)
	CalculateStrengthLoad(ctx context.Context, numDays, startDaysAgo int) (int, error)
}

// ReportBuilder produces the full stats report
type ReportBuilder interface {
	Build(ctx context.Context) (*report.Report, error)
}

// ProviderStatus reports provider back-off for the health check
type ProviderStatus interface {
	PausedUntil() time.Time
}

// Server wires the routes to the aggregator, report builder and response cache
type Server struct {
	logger   *slog.Logger
	agg      Aggregations
	reports  ReportBuilder
	cache    *respcache.Cache
	provider ProviderStatus
}

// New creates a server. provider may be nil.
func New(logger *slog.Logger, agg Aggregations, reports ReportBuilder, cache *respcache.Cache, provider ProviderStatus) *Server {
	return &Server{logger: logger, agg: agg, reports: reports, cache: cache, provider: provider}
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/garmin-stats", s.handleStatsText).Methods(http.MethodGet)
	r.HandleFunc("/garmin-stats.json", s.handleStatsJSON).Methods(http.MethodGet)
	r.HandleFunc("/api/days/{date}", s.handleDay).Methods(http.MethodGet)
	r.HandleFunc("/api/load", s.handleLoad).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	return s.withRequestID(h)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
		Handler:           s.Handler(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      writeTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("TCP listen: %w", err)
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.LogAttrs(context.Background(), slog.LevelInfo, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.LogAttrs(ctx, slog.LevelInfo, "starting server", slog.String("addr", listener.Addr().String()))
	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server serve: %w", err)
	}
	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
