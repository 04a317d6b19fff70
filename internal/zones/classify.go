package zones

import "time"

// Upper bounds (inclusive) for zones 1-4. Anything below the zone 1 floor is
// zone 0, anything above the zone 4 bound is zone 5.
const (
	zone1Floor = 98
	zone1Max   = 116
	zone2Max   = 136
	zone3Max   = 155
	zone4Max   = 175
)

// Classify maps a heart rate in bpm to its zone index
func Classify(hr int) int {
	switch {
	case hr < zone1Floor:
		return 0
	case hr <= zone1Max:
		return 1
	case hr <= zone2Max:
		return 2
	case hr <= zone3Max:
		return 3
	case hr <= zone4Max:
		return 4
	default:
		return 5
	}
}

// Sample is a single heart rate reading. HR is nil when the sensor
// reported no value.
type Sample struct {
	Time time.Time
	HR   *int
}

// FromSamples rebuilds a zone map from raw heart rate samples.
//
// Each sample is credited with the time since the previous sample that had a
// reading. Samples without a reading are skipped entirely. Samples for which
// exclude returns true advance the clock but are not credited, so time already
// covered by an activity's own zone breakdown is not counted twice.
func FromSamples(samples []Sample, exclude func(time.Time) bool) ZoneMap {
	var m ZoneMap
	if len(samples) == 0 {
		return m
	}

	prev := samples[0].Time
	for _, s := range samples {
		if s.HR == nil {
			continue
		}
		elapsed := s.Time.Sub(prev)
		prev = s.Time
		if exclude != nil && exclude(s.Time) {
			continue
		}
		if elapsed <= 0 {
			continue
		}
		m[Classify(*s.HR)] += elapsed.Seconds()
	}
	return m
}
