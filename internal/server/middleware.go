package server

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"

	"garmin-zones/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// withRequestID tags the request context with an id so every log line of the
// request carries it. An id supplied by the client is kept.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logging.WithAttrs(r.Context(), slog.String("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logRequest is the access log formatter; output goes to the structured
// logger instead of the writer.
func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	level := slog.LevelInfo
	if p.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(p.Request.Context(), level, "request",
		slog.String("method", p.Request.Method),
		slog.String("path", p.URL.Path),
		slog.Int("status", p.StatusCode),
		slog.Int("size", p.Size),
		slog.Duration("took", time.Since(p.TimeStamp)))
}
