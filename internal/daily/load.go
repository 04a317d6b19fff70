package daily

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"garmin-zones/internal/zones"
)

// StrengthActivityName is the exact activity name counted as strength work
const StrengthActivityName = "Strength"

// ErrInvalidWindow is returned for a load window with no days or a negative offset
var ErrInvalidWindow = errors.New("invalid load window")

// WindowDates returns the numDays dates ending startDaysAgo days before today,
// most recent first.
func (a *Aggregator) WindowDates(numDays, startDaysAgo int) ([]string, error) {
	if numDays <= 0 {
		return nil, fmt.Errorf("%w: num_days must be positive, got %d", ErrInvalidWindow, numDays)
	}
	if startDaysAgo < 0 {
		return nil, fmt.Errorf("%w: start_days_ago must not be negative, got %d", ErrInvalidWindow, startDaysAgo)
	}

	today := a.now()
	dates := make([]string, numDays)
	for k := range dates {
		dates[k] = today.AddDate(0, 0, -(startDaysAgo + k)).Format(DateLayout)
	}
	return dates, nil
}

// WindowZoneMap merges the zone maps of every day in the window
func (a *Aggregator) WindowZoneMap(ctx context.Context, numDays, startDaysAgo int) (zones.ZoneMap, error) {
	days, err := a.window(ctx, numDays, startDaysAgo)
	if err != nil {
		return zones.ZoneMap{}, err
	}

	maps := make([]zones.ZoneMap, len(days))
	for i, d := range days {
		maps[i] = d.Zones
	}
	return zones.Merge(maps...), nil
}

// CalculateLoad returns the load in minutes summed over the window.
// It is a total, not a per-day average.
func (a *Aggregator) CalculateLoad(ctx context.Context, numDays, startDaysAgo int) (int, error) {
	merged, err := a.WindowZoneMap(ctx, numDays, startDaysAgo)
	if err != nil {
		return 0, err
	}
	return zones.LoadMinutes(zones.LoadSeconds(merged)), nil
}

// CalculateStrengthLoad returns the minutes spent in activities named exactly
// "Strength" over the window. Minutes are truncated once, on the total.
func (a *Aggregator) CalculateStrengthLoad(ctx context.Context, numDays, startDaysAgo int) (int, error) {
	days, err := a.window(ctx, numDays, startDaysAgo)
	if err != nil {
		return 0, err
	}

	var seconds float64
	for _, d := range days {
		for _, r := range d.Activities {
			if r.Name == StrengthActivityName {
				seconds += r.Duration().Seconds()
			}
		}
	}
	return int(math.Floor(seconds / 60)), nil
}

// window aggregates every day of the window, in WindowDates order
func (a *Aggregator) window(ctx context.Context, numDays, startDaysAgo int) ([]Day, error) {
	dates, err := a.WindowDates(numDays, startDaysAgo)
	if err != nil {
		return nil, err
	}

	days := make([]Day, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, date := range dates {
		g.Go(func() error {
			d, err := a.day(gctx, date)
			if err != nil {
				return err
			}
			days[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, nil
}
