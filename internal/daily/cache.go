package daily

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"garmin-zones/internal/zones"
)

// DateLayout is the ISO calendar date format used for cache keys
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned for dates that are not YYYY-MM-DD
var ErrInvalidDate = errors.New("invalid date")

// Day is everything aggregated for one calendar date. Zones is always the
// merge of the activities' zone maps.
type Day struct {
	Activities []ActivityRecord
	Zones      zones.ZoneMap
}

func (d Day) clone() Day {
	return Day{Activities: slices.Clone(d.Activities), Zones: d.Zones}
}

// DayCache holds aggregated days that can no longer change, keyed by
// YYYY-MM-DD. Entries live for the life of the process.
// It is safe for concurrent use.
type DayCache struct {
	mu   sync.RWMutex
	days map[string]Day
}

// NewDayCache creates an empty day cache
func NewDayCache() *DayCache {
	return &DayCache{days: make(map[string]Day)}
}

// Get returns the cached day for date
func (c *DayCache) Get(date string) (Day, bool) {
	c.mu.RLock()
	d, ok := c.days[date]
	c.mu.RUnlock()
	if !ok {
		return Day{}, false
	}
	return d.clone(), true
}

// Put stores day under date if the date is stable at now. It reports whether
// the day was stored.
func (c *DayCache) Put(date string, day Day, now time.Time) bool {
	stable, err := IsStable(date, now)
	if err != nil || !stable {
		return false
	}

	stored := day.clone()
	c.mu.Lock()
	c.days[date] = stored
	c.mu.Unlock()
	return true
}

// Len returns the number of cached days
func (c *DayCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.days)
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// IsStable reports whether date is strictly before yesterday relative to now.
// Today and yesterday may still be updated by the provider.
func IsStable(date string, now time.Time) (bool, error) {
	d, err := ParseDate(date, now.Location())
	if err != nil {
		return false, err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	return d.Before(yesterday), nil
}
