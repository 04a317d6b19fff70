package zones

// NumZones is the number of heart rate zones tracked
const NumZones = 6

// ZoneMap holds elapsed seconds per heart rate zone, indexed 0 (rest) to 5 (max).
// It is a value type: copies handed out by aggregation are independent of any
// cached state.
type ZoneMap [NumZones]float64

// Total returns the seconds summed across all zones
func (m ZoneMap) Total() float64 {
	var total float64
	for _, s := range m {
		total += s
	}
	return total
}

// IsZero reports whether every zone is empty
func (m ZoneMap) IsZero() bool {
	return m == ZoneMap{}
}

// Merge sums zone maps bucket by bucket. With no arguments it returns the
// empty map.
func Merge(maps ...ZoneMap) ZoneMap {
	var merged ZoneMap
	for _, m := range maps {
		for zone, secs := range m {
			merged[zone] += secs
		}
	}
	return merged
}
