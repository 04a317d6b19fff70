package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"garmin-zones/internal/daily"
	"garmin-zones/internal/report"
	"garmin-zones/internal/zones"
)

// Response cache keys
const (
	statsTextKey = "garmin-stats"
	statsJSONKey = "garmin-stats.json"
)

// DayResponse is the body of /api/days/{date}
type DayResponse struct {
	Date       string                 `json:"date"`
	Activities []daily.ActivityRecord `json:"activities"`
	Zones      zones.ZoneMap          `json:"zones"`
	Load       int                    `json:"load"`
}

// LoadResponse is the body of /api/load
type LoadResponse struct {
	Days         int `json:"days"`
	Start        int `json:"start"`
	Load         int `json:"load"`
	StrengthLoad int `json:"strength_load"`
}

func (s *Server) handleStatsText(w http.ResponseWriter, r *http.Request) {
	body, err := s.cache.Get(r.Context(), statsTextKey, func(ctx context.Context) ([]byte, error) {
		rep, err := s.reports.Build(ctx)
		if err != nil {
			return nil, err
		}
		return []byte(report.RenderText(rep)), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(body)
}

func (s *Server) handleStatsJSON(w http.ResponseWriter, r *http.Request) {
	body, err := s.cache.Get(r.Context(), statsJSONKey, func(ctx context.Context) ([]byte, error) {
		rep, err := s.reports.Build(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rep)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	day, err := s.agg.GetDay(r.Context(), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	activities, zm := day.Activities, day.Zones
	if activities == nil {
		activities = []daily.ActivityRecord{}
	}

	s.writeJSON(w, r, DayResponse{
		Date:       date,
		Activities: activities,
		Zones:      zm,
		Load:       zones.LoadMinutes(zones.LoadSeconds(zm)),
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", 7)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := intParam(r, "start", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	load, err := s.agg.CalculateLoad(r.Context(), days, start)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	strength, err := s.agg.CalculateStrengthLoad(r.Context(), days, start)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, LoadResponse{Days: days, Start: start, Load: load, StrengthLoad: strength})
}

// HealthResponse is the body of /healthz. The server stays healthy while the
// provider is backing off; ProviderPausedUntil says when requests resume.
type HealthResponse struct {
	Status              string     `json:"status"`
	ProviderPausedUntil *time.Time `json:"provider_paused_until,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.provider != nil {
		if until := s.provider.PausedUntil(); !until.IsZero() {
			resp.Status = "provider_paused"
			resp.ProviderPausedUntil = &until
		}
	}

	body, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// intParam reads an optional integer query parameter
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", daily.ErrInvalidWindow, name, v)
	}
	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.LogAttrs(r.Context(), slog.LevelError, "encoding response", slog.Any("error", err))
	}
}

// writeError maps caller mistakes to 400 and everything else, which comes
// from the provider, to 502.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, daily.ErrInvalidWindow) || errors.Is(err, daily.ErrInvalidDate) {
		status = http.StatusBadRequest
	}
	s.logger.LogAttrs(r.Context(), slog.LevelError, "request failed",
		slog.Int("status", status), slog.Any("error", err))
	http.Error(w, err.Error(), status)
}
