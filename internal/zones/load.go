package zones

import "math"

// zoneWeights scale each zone's seconds in the load formula.
// Zone 0 never counts and zone 1 counts half.
var zoneWeights = ZoneMap{0, 0.5, 1, 1, 1, 1}

// LoadSeconds returns the zone-weighted load of a zone map in seconds
func LoadSeconds(m ZoneMap) float64 {
	var load float64
	for zone, secs := range m {
		load += zoneWeights[zone] * secs
	}
	return load
}

// LoadMinutes converts load seconds to whole minutes, truncating
func LoadMinutes(seconds float64) int {
	return int(math.Floor(seconds / 60))
}
