package daily

import (
	"errors"
	"testing"
	"time"

	"garmin-zones/internal/zones"
)

func TestIsStable(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 30, 0, 0, time.Local)

	tests := []struct {
		date string
		want bool
	}{
		{"2024-03-02", false},
		{"2024-03-01", false},
		{"2024-02-29", false},
		{"2024-02-28", true},
		{"2023-12-31", true},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got, err := IsStable(tt.date, now)
			if err != nil {
				t.Fatalf("IsStable() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsStable(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}

	if _, err := IsStable("yesterday", now); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("IsStable(yesterday) error = %v, want ErrInvalidDate", err)
	}
}

func TestDayCachePut(t *testing.T) {
	now := time.Date(2024, time.March, 10, 23, 59, 0, 0, time.Local)
	cache := NewDayCache()
	day := Day{
		Activities: []ActivityRecord{{ID: 1, Name: "Run", Zones: zones.ZoneMap{0, 60}}},
		Zones:      zones.ZoneMap{0, 60},
	}

	if cache.Put("2024-03-10", day, now) {
		t.Error("Put stored today")
	}
	if cache.Put("2024-03-09", day, now) {
		t.Error("Put stored yesterday")
	}
	if cache.Put("not-a-date", day, now) {
		t.Error("Put stored an invalid date")
	}
	if !cache.Put("2024-03-08", day, now) {
		t.Fatal("Put refused a stable date")
	}

	// mutating the caller's copy must not reach the cache
	day.Activities[0].Name = "changed"

	got, ok := cache.Get("2024-03-08")
	if !ok {
		t.Fatal("Get missed a stored date")
	}
	if got.Activities[0].Name != "Run" {
		t.Errorf("cached name = %q, want Run", got.Activities[0].Name)
	}
	if got.Zones != day.Zones {
		t.Errorf("cached zones = %v, want %v", got.Zones, day.Zones)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
	if _, ok := cache.Get("2024-03-10"); ok {
		t.Error("Get hit for a date that was never stored")
	}
}
