package daily

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"garmin-zones/internal/garmin"
	"garmin-zones/internal/observability"
	"garmin-zones/internal/zones"
)

// MetersPerMile converts provider distances to miles
const MetersPerMile = 1609.34

// defaultConcurrency bounds parallel provider calls for one aggregation
const defaultConcurrency = 4

// Provider is the subset of the Garmin client the aggregator needs
type Provider interface {
	ActivitiesForDate(ctx context.Context, date string) ([]garmin.Activity, error)
	TimeInZones(ctx context.Context, activityID int64) ([]garmin.ZoneTime, error)
	DailyHeartRate(ctx context.Context, date string) (*garmin.DailyHeartRate, error)
}

// ActivityRecord is one recorded exercise session with its resolved zones
type ActivityRecord struct {
	ID            int64         `json:"id"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	Zones         zones.ZoneMap `json:"zones"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	DistanceMiles float64       `json:"distance_miles"`
}

// Duration returns the elapsed time of the activity
func (r ActivityRecord) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Aggregator builds per-day activity lists and zone maps from the provider,
// caching days that can no longer change. It is safe for concurrent use.
type Aggregator struct {
	provider    Provider
	cache       *DayCache
	logger      *slog.Logger
	now         func() time.Time
	concurrency int
	inflight    singleflight.Group
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithClock overrides the clock used to decide today and stability
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithConcurrency bounds parallel provider calls
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAggregator creates an aggregator backed by provider and cache
func NewAggregator(provider Provider, cache *DayCache, logger *slog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		provider:    provider,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Today returns the current date as YYYY-MM-DD
func (a *Aggregator) Today() string {
	return a.now().Format(DateLayout)
}

// GetDay returns the activities and merged zone map for date from a single
// aggregation, so both always agree.
func (a *Aggregator) GetDay(ctx context.Context, date string) (Day, error) {
	return a.day(ctx, date)
}

// GetActivities returns the activities recorded on date, in provider order
func (a *Aggregator) GetActivities(ctx context.Context, date string) ([]ActivityRecord, error) {
	d, err := a.day(ctx, date)
	if err != nil {
		return nil, err
	}
	return d.Activities, nil
}

// GetZoneMap returns the merged zone map of all activities on date
func (a *Aggregator) GetZoneMap(ctx context.Context, date string) (zones.ZoneMap, error) {
	d, err := a.day(ctx, date)
	if err != nil {
		return zones.ZoneMap{}, err
	}
	return d.Zones, nil
}

// GetAllDayZoneMap returns the activity zone map for date plus time outside
// activities reconstructed from the all-day heart rate samples.
// The result is never cached.
func (a *Aggregator) GetAllDayZoneMap(ctx context.Context, date string) (zones.ZoneMap, error) {
	d, err := a.day(ctx, date)
	if err != nil {
		return zones.ZoneMap{}, err
	}
	return a.AllDayZoneMap(ctx, date, d)
}

// AllDayZoneMap adds the heart rate time outside d's activities to d's zone
// map. d must be the day previously returned for date.
func (a *Aggregator) AllDayZoneMap(ctx context.Context, date string, d Day) (zones.ZoneMap, error) {
	hr, err := a.provider.DailyHeartRate(ctx, date)
	if err != nil {
		return zones.ZoneMap{}, fmt.Errorf("heart rate for %s: %w", date, err)
	}

	duringActivity := func(ts time.Time) bool {
		for _, r := range d.Activities {
			if ts.After(r.Start) && ts.Before(r.End) {
				return true
			}
		}
		return false
	}
	background := zones.FromSamples(hr.HeartRateSamples(), duringActivity)
	return zones.Merge(background, d.Zones), nil
}

// day returns the aggregated day, from the cache when possible
func (a *Aggregator) day(ctx context.Context, date string) (Day, error) {
	if _, err := ParseDate(date, a.now().Location()); err != nil {
		return Day{}, err
	}

	if d, ok := a.cache.Get(date); ok {
		observability.RecordDayCacheLookup(true)
		return d, nil
	}
	observability.RecordDayCacheLookup(false)

	// Concurrent misses for one date share a single fetch, which ignores
	// the cancellation of whichever caller started it
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := a.inflight.Do(date, func() (any, error) {
		if d, ok := a.cache.Get(date); ok {
			return d, nil
		}

		d, err := a.fetchDay(fetchCtx, date)
		if err != nil {
			return nil, err
		}

		cached := a.cache.Put(date, d, a.now())
		if cached {
			observability.SetDayCacheEntries(a.cache.Len())
		}
		a.logger.LogAttrs(fetchCtx, slog.LevelDebug, "aggregated day",
			slog.String("date", date),
			slog.Int("activities", len(d.Activities)),
			slog.Bool("cached", cached))
		return d, nil
	})
	if err != nil {
		return Day{}, err
	}
	return v.(Day).clone(), nil
}

// fetchDay pulls a day's activities and their zone breakdowns from the
// provider. Any failure fails the whole day.
func (a *Aggregator) fetchDay(ctx context.Context, date string) (Day, error) {
	activities, err := a.provider.ActivitiesForDate(ctx, date)
	if err != nil {
		return Day{}, fmt.Errorf("activities for %s: %w", date, err)
	}

	records := make([]ActivityRecord, len(activities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, act := range activities {
		g.Go(func() error {
			rec, err := a.resolveActivity(gctx, act)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Day{}, fmt.Errorf("aggregating %s: %w", date, err)
	}

	maps := make([]zones.ZoneMap, len(records))
	for i, r := range records {
		maps[i] = r.Zones
	}

	return Day{Activities: records, Zones: zones.Merge(maps...)}, nil
}

// resolveActivity converts a provider activity into an ActivityRecord
func (a *Aggregator) resolveActivity(ctx context.Context, act garmin.Activity) (ActivityRecord, error) {
	if err := act.Validate(); err != nil {
		return ActivityRecord{}, err
	}
	id := *act.ActivityID

	start, err := garmin.ParseLocalTime(*act.StartTimeLocal)
	if err != nil {
		return ActivityRecord{}, fmt.Errorf("activity %d: %w", id, err)
	}

	breakdown, err := a.provider.TimeInZones(ctx, id)
	if err != nil {
		return ActivityRecord{}, fmt.Errorf("activity %d zones: %w", id, err)
	}

	reported := make([]zones.ZoneSeconds, 0, len(breakdown))
	for _, zt := range breakdown {
		if err := zt.Validate(); err != nil {
			return ActivityRecord{}, fmt.Errorf("activity %d: %w", id, err)
		}
		reported = append(reported, zones.ZoneSeconds{Zone: *zt.ZoneNumber, Seconds: *zt.SecsInZone})
	}

	var description string
	if act.Description != nil {
		description = *act.Description
	}

	zm, err := zones.Resolve(reported, description, *act.Duration)
	if err != nil {
		return ActivityRecord{}, fmt.Errorf("activity %d: %w", id, err)
	}

	var miles float64
	if act.Distance != nil {
		miles = *act.Distance / MetersPerMile
	}

	return ActivityRecord{
		ID:            id,
		Start:         start,
		End:           start.Add(time.Duration(*act.Duration * float64(time.Second))),
		Zones:         zm,
		Name:          act.ActivityName,
		Description:   description,
		DistanceMiles: miles,
	}, nil
}
