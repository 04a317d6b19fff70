package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"garmin-zones/internal/daily"
	"garmin-zones/internal/zones"
)

// Section defaults
const (
	DefaultWeeks        = 5
	DefaultTrailingDays = 14
	DefaultMonthDays    = 30

	// loadWindowDays is the length of every weekly and trailing load window
	loadWindowDays = 7
)

// Source is the aggregation surface the builder reads from
type Source interface {
	Today() string
	WindowDates(numDays, startDaysAgo int) ([]string, error)
	GetDay(ctx context.Context, date string) (daily.Day, error)
	AllDayZoneMap(ctx context.Context, date string, d daily.Day) (zones.ZoneMap, error)
	WindowZoneMap(ctx context.Context, numDays, startDaysAgo int) (zones.ZoneMap, error)
	CalculateLoad(ctx context.Context, numDays, startDaysAgo int) (int, error)
	CalculateStrengthLoad(ctx context.Context, numDays, startDaysAgo int) (int, error)
}

// Report contains everything shown on the stats page
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Daily       DailySection   `json:"daily"`
	Weekly      []WeekStats    `json:"weekly"`
	Trailing    []TrailingLoad `json:"trailing"`
	Monthly     []ZoneDuration `json:"monthly"`
}

// DailySection summarizes today
type DailySection struct {
	Date       string            `json:"date"`
	Activities []ActivitySummary `json:"activities"`
	Zones      []ZoneDuration    `json:"zones"` // includes time outside activities
}

// ActivitySummary is one of today's activities
type ActivitySummary struct {
	Name            string    `json:"name"`
	Start           time.Time `json:"start"`
	DurationSeconds float64   `json:"duration_seconds"`
	Miles           float64   `json:"miles"`
	Load            int       `json:"load"`
}

// WeekStats is the load for one 7-day block
type WeekStats struct {
	Label            string  `json:"label"` // "Week of 2024-03-10"
	Load             int     `json:"load"`
	StrengthLoad     int     `json:"strength_load"`
	Zone2PlusSeconds float64 `json:"zone2_plus_seconds"`
}

// TrailingLoad is the 7-day load ending on Date
type TrailingLoad struct {
	Date     string  `json:"date"`
	Load     int     `json:"load"`
	DailyAvg float64 `json:"daily_avg"`
}

// ZoneDuration is the time spent in one zone
type ZoneDuration struct {
	Zone    int     `json:"zone"`
	Seconds float64 `json:"seconds"`
}

// Settings controls how much history each section covers.
// Zero values fall back to the defaults.
type Settings struct {
	Weeks        int
	TrailingDays int
	MonthDays    int
}

// Builder assembles reports from a Source
type Builder struct {
	source   Source
	settings Settings
	now      func() time.Time
}

// NewBuilder creates a report builder
func NewBuilder(source Source, settings Settings) *Builder {
	if settings.Weeks <= 0 {
		settings.Weeks = DefaultWeeks
	}
	if settings.TrailingDays <= 0 {
		settings.TrailingDays = DefaultTrailingDays
	}
	if settings.MonthDays <= 0 {
		settings.MonthDays = DefaultMonthDays
	}
	return &Builder{source: source, settings: settings, now: time.Now}
}

// Build computes every section of the report. Sections are built
// concurrently; the first error fails the report.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	r := &Report{GeneratedAt: b.now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r.Daily, err = b.buildDaily(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		r.Weekly, err = b.buildWeekly(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		r.Trailing, err = b.buildTrailing(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		r.Monthly, err = b.buildMonthly(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

// buildDaily summarizes today's activities and all-day zone time
func (b *Builder) buildDaily(ctx context.Context) (DailySection, error) {
	today := b.source.Today()

	day, err := b.source.GetDay(ctx, today)
	if err != nil {
		return DailySection{}, fmt.Errorf("daily activities: %w", err)
	}
	records := day.Activities
	allDay, err := b.source.AllDayZoneMap(ctx, today, day)
	if err != nil {
		return DailySection{}, fmt.Errorf("daily zones: %w", err)
	}

	section := DailySection{
		Date:       today,
		Activities: make([]ActivitySummary, len(records)),
		Zones:      zoneDurations(allDay),
	}
	for i, r := range records {
		section.Activities[i] = ActivitySummary{
			Name:            r.Name,
			Start:           r.Start,
			DurationSeconds: r.Duration().Seconds(),
			Miles:           r.DistanceMiles,
			Load:            zones.LoadMinutes(zones.LoadSeconds(r.Zones)),
		}
	}
	return section, nil
}

// buildWeekly computes consecutive 7-day blocks, most recent first
func (b *Builder) buildWeekly(ctx context.Context) ([]WeekStats, error) {
	weeks := make([]WeekStats, b.settings.Weeks)
	for i := range weeks {
		startDaysAgo := loadWindowDays * i

		label, err := b.dateDaysAgo(startDaysAgo)
		if err != nil {
			return nil, err
		}
		load, err := b.source.CalculateLoad(ctx, loadWindowDays, startDaysAgo)
		if err != nil {
			return nil, fmt.Errorf("week %d load: %w", i, err)
		}
		strength, err := b.source.CalculateStrengthLoad(ctx, loadWindowDays, startDaysAgo)
		if err != nil {
			return nil, fmt.Errorf("week %d strength load: %w", i, err)
		}
		zm, err := b.source.WindowZoneMap(ctx, loadWindowDays, startDaysAgo)
		if err != nil {
			return nil, fmt.Errorf("week %d zones: %w", i, err)
		}

		weeks[i] = WeekStats{
			Label:            "Week of " + label,
			Load:             load,
			StrengthLoad:     strength,
			Zone2PlusSeconds: zm[2] + zm[3] + zm[4] + zm[5],
		}
	}
	return weeks, nil
}

// buildTrailing computes the 7-day load ending on each of the last N days
func (b *Builder) buildTrailing(ctx context.Context) ([]TrailingLoad, error) {
	entries := make([]TrailingLoad, b.settings.TrailingDays)
	for i := range entries {
		date, err := b.dateDaysAgo(i)
		if err != nil {
			return nil, err
		}
		load, err := b.source.CalculateLoad(ctx, loadWindowDays, i)
		if err != nil {
			return nil, fmt.Errorf("trailing load %s: %w", date, err)
		}
		entries[i] = TrailingLoad{
			Date:     date,
			Load:     load,
			DailyAvg: float64(load) / loadWindowDays,
		}
	}
	return entries, nil
}

// buildMonthly computes the per-zone breakdown over the month window
func (b *Builder) buildMonthly(ctx context.Context) ([]ZoneDuration, error) {
	zm, err := b.source.WindowZoneMap(ctx, b.settings.MonthDays, 0)
	if err != nil {
		return nil, fmt.Errorf("monthly zones: %w", err)
	}
	return zoneDurations(zm), nil
}

func (b *Builder) dateDaysAgo(n int) (string, error) {
	dates, err := b.source.WindowDates(1, n)
	if err != nil {
		return "", err
	}
	return dates[0], nil
}

func zoneDurations(m zones.ZoneMap) []ZoneDuration {
	out := make([]ZoneDuration, zones.NumZones)
	for z := range out {
		out[z] = ZoneDuration{Zone: z, Seconds: m[z]}
	}
	return out
}
