package garmin

import (
	"fmt"
	"time"
)

// Fields the day aggregation cannot work without are pointers so a missing
// field can be told apart from a zero value.

// Activity represents an activity summary from the activities-for-date endpoint
type Activity struct {
	ActivityID     *int64   `json:"activityId"`
	ActivityName   string   `json:"activityName"`
	Description    *string  `json:"description"`
	StartTimeLocal *string  `json:"startTimeLocal"`
	Duration       *float64 `json:"duration"` // seconds
	Distance       *float64 `json:"distance"` // meters
}

// activitiesForDate is the envelope returned by the heart rate forDate endpoint
type activitiesForDate struct {
	ActivitiesForDay *struct {
		Payload []Activity `json:"payload"`
	} `json:"ActivitiesForDay"`
}

// ZoneTime is one entry of an activity's time-in-zone breakdown
type ZoneTime struct {
	ZoneNumber      *int     `json:"zoneNumber"`
	SecsInZone      *float64 `json:"secsInZone"`
	ZoneLowBoundary int      `json:"zoneLowBoundary"` // bpm
}

// DailyHeartRate is the all-day heart rate series for a date.
// Each value is [timestamp millis, bpm]; bpm is null when no reading was taken.
type DailyHeartRate struct {
	CalendarDate    string        `json:"calendarDate"`
	RestingHR       *int          `json:"restingHeartRate"`
	HeartRateValues [][2]*float64 `json:"heartRateValues"`
}

// startTimeLayouts are the formats seen in startTimeLocal
var startTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.0",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseLocalTime parses a provider local timestamp in the process time zone
func ParseLocalTime(s string) (time.Time, error) {
	for _, layout := range startTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized time %q", ErrMalformedResponse, s)
}

// Validate checks that the fields needed to build an activity record are present
func (a *Activity) Validate() error {
	switch {
	case a.ActivityID == nil:
		return fmt.Errorf("%w: activity missing activityId", ErrMalformedResponse)
	case a.StartTimeLocal == nil:
		return fmt.Errorf("%w: activity %d missing startTimeLocal", ErrMalformedResponse, *a.ActivityID)
	case a.Duration == nil:
		return fmt.Errorf("%w: activity %d missing duration", ErrMalformedResponse, *a.ActivityID)
	case *a.Duration < 0:
		return fmt.Errorf("%w: activity %d has negative duration", ErrMalformedResponse, *a.ActivityID)
	}
	return nil
}

// Validate checks that a zone entry carries both the zone and the seconds
func (z *ZoneTime) Validate() error {
	if z.ZoneNumber == nil {
		return fmt.Errorf("%w: zone entry missing zoneNumber", ErrMalformedResponse)
	}
	if z.SecsInZone == nil {
		return fmt.Errorf("%w: zone %d missing secsInZone", ErrMalformedResponse, *z.ZoneNumber)
	}
	return nil
}
