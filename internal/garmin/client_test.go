package garmin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := newClient(srv.URL, srv.Client())
	c.rateLimiter.minInterval = 0
	return c
}

func TestActivitiesForDate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mobile-gateway/heartRate/forDate/2024-03-01", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ActivitiesForDay":{"payload":[
			{"activityId":101,"activityName":"Strength","description":"ZONE(2)","startTimeLocal":"2024-03-01 07:30:00","duration":1800.5,"distance":0},
			{"activityId":102,"activityName":"Run","startTimeLocal":"2024-03-01 18:00:00","duration":2400,"distance":8046.7}
		]}}`))
	})
	c := newTestClient(t, mux)

	activities, err := c.ActivitiesForDate(context.Background(), "2024-03-01")
	if err != nil {
		t.Fatalf("ActivitiesForDate() error = %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("got %d activities, want 2", len(activities))
	}

	a := activities[0]
	if *a.ActivityID != 101 || a.ActivityName != "Strength" || *a.Description != "ZONE(2)" || *a.Duration != 1800.5 {
		t.Errorf("unexpected first activity: %+v", a)
	}
	if activities[1].Description != nil {
		t.Errorf("second activity description = %q, want nil", *activities[1].Description)
	}
}

func TestActivitiesForDateMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing envelope", `{}`},
		{"missing id", `{"ActivitiesForDay":{"payload":[{"startTimeLocal":"2024-03-01 07:30:00","duration":10}]}}`},
		{"missing start", `{"ActivitiesForDay":{"payload":[{"activityId":1,"duration":10}]}}`},
		{"missing duration", `{"ActivitiesForDay":{"payload":[{"activityId":1,"startTimeLocal":"2024-03-01 07:30:00"}]}}`},
		{"not json", `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			_, err := c.ActivitiesForDate(context.Background(), "2024-03-01")
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("error = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestTimeInZones(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/activity-service/activity/101/hrTimeInZones", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"zoneNumber":1,"secsInZone":120.5,"zoneLowBoundary":98},{"zoneNumber":2,"secsInZone":60,"zoneLowBoundary":117}]`))
	})
	mux.HandleFunc("/activity-service/activity/102/hrTimeInZones", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"zoneNumber":1}]`))
	})
	c := newTestClient(t, mux)

	zones, err := c.TimeInZones(context.Background(), 101)
	if err != nil {
		t.Fatalf("TimeInZones() error = %v", err)
	}
	if len(zones) != 2 || *zones[0].ZoneNumber != 1 || *zones[0].SecsInZone != 120.5 {
		t.Errorf("unexpected zones: %+v", zones)
	}

	if _, err := c.TimeInZones(context.Background(), 102); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("missing secsInZone error = %v, want ErrMalformedResponse", err)
	}
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))

	_, err := c.TimeInZones(context.Background(), 1)
	if !errors.Is(err, ErrAPI) {
		t.Errorf("error = %v, want ErrAPI", err)
	}
}

func TestTooManyRequestsPauses(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	if _, err := c.TimeInZones(context.Background(), 1); !errors.Is(err, ErrAPI) {
		t.Fatalf("error = %v, want ErrAPI", err)
	}

	paused := c.PausedUntil()
	if paused.IsZero() || time.Until(paused) < 25*time.Second {
		t.Errorf("PausedUntil() = %v, want about 30s from now", paused)
	}

	// the next request waits out the pause and gives up with the context
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.TimeInZones(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("paused request error = %v, want context.DeadlineExceeded", err)
	}
}

func TestDailyHeartRate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wellness-service/wellness/dailyHeartRate", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("date"); got != "2024-03-01" {
			t.Errorf("date param = %q, want 2024-03-01", got)
		}
		w.Write([]byte(`{"calendarDate":"2024-03-01","heartRateValues":[[1709280000000,61],[1709280120000,null],[1709280240000,130]]}`))
	})
	c := newTestClient(t, mux)

	hr, err := c.DailyHeartRate(context.Background(), "2024-03-01")
	if err != nil {
		t.Fatalf("DailyHeartRate() error = %v", err)
	}

	samples := hr.HeartRateSamples()
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[1].HR != nil {
		t.Errorf("sample 1 HR = %d, want nil", *samples[1].HR)
	}
	if *samples[2].HR != 130 {
		t.Errorf("sample 2 HR = %d, want 130", *samples[2].HR)
	}
	if got := samples[2].Time.Sub(samples[0].Time); got != 4*time.Minute {
		t.Errorf("sample spacing = %v, want 4m", got)
	}
}

func TestParseLocalTime(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-03-01 07:30:00", false},
		{"2024-03-01T07:30:00.0", false},
		{"2024-03-01T07:30:00", false},
		{"2024-03-01T07:30:00Z", false},
		{"yesterday", true},
	}

	for _, tt := range tests {
		got, err := ParseLocalTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLocalTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (got.Hour() != 7 && got.UTC().Hour() != 7) {
			t.Errorf("ParseLocalTime(%q) = %v, want 07:30", tt.in, got)
		}
	}
}
