package zones

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidZone is returned when a provider breakdown names a zone outside 0-5
// or reports negative time
var ErrInvalidZone = errors.New("invalid zone breakdown")

// ZoneSeconds is one entry of a provider's per-zone breakdown
type ZoneSeconds struct {
	Zone    int
	Seconds float64
}

// minimumZoneMarkers are checked in order; the first one found wins
var minimumZoneMarkers = []struct {
	marker string
	zone   int
}{
	{"ZONE(3)", 3},
	{"ZONE(2)", 2},
	{"ZONE(1)", 1},
}

// MinimumZone returns the floor zone requested by a ZONE(n) marker in an
// activity description, or 0 if there is none.
func MinimumZone(description string) int {
	for _, m := range minimumZoneMarkers {
		if strings.Contains(description, m.marker) {
			return m.zone
		}
	}
	return 0
}

// Resolve converts a provider zone breakdown into a complete zone map.
//
// Time reported below the description's minimum zone is promoted to it. With a
// non-zero minimum, any part of the activity duration the provider did not
// attribute to a zone is credited to the minimum zone as well; with no minimum
// that time is left out.
func Resolve(reported []ZoneSeconds, description string, durationSecs float64) (ZoneMap, error) {
	var m ZoneMap
	minZone := MinimumZone(description)

	var attributed float64
	for _, zs := range reported {
		if zs.Zone < 0 || zs.Zone >= NumZones {
			return ZoneMap{}, fmt.Errorf("%w: zone %d", ErrInvalidZone, zs.Zone)
		}
		if zs.Seconds < 0 {
			return ZoneMap{}, fmt.Errorf("%w: zone %d has %v seconds", ErrInvalidZone, zs.Zone, zs.Seconds)
		}
		zone := zs.Zone
		if zone < minZone {
			zone = minZone
		}
		m[zone] += zs.Seconds
		attributed += zs.Seconds
	}

	if minZone > 0 {
		if unaccounted := durationSecs - attributed; unaccounted > 0 {
			m[minZone] += unaccounted
		}
	}

	return m, nil
}
