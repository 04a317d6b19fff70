package report

import (
	"fmt"
	"math"
	"strings"
)

// RenderText formats a report as the plain-text stats page
func RenderText(r *Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Today (%s):\n", r.Daily.Date)
	if len(r.Daily.Activities) == 0 {
		sb.WriteString("No activities\n")
	}
	for _, a := range r.Daily.Activities {
		fmt.Fprintf(&sb, "%s at %s: %s", a.Name, a.Start.Format("15:04"), PrettyDuration(a.DurationSeconds))
		if a.Miles > 0 {
			fmt.Fprintf(&sb, ", %.2f mi", a.Miles)
		}
		fmt.Fprintf(&sb, ", Load %d\n", a.Load)
	}
	writeZones(&sb, r.Daily.Zones)
	sb.WriteString("\n")

	sb.WriteString("Weekly Stats:\n")
	for _, w := range r.Weekly {
		fmt.Fprintf(&sb, "%s: Load %d, Strength %d, Zone 2+ %s\n",
			w.Label, w.Load, w.StrengthLoad, PrettyDuration(w.Zone2PlusSeconds))
	}
	sb.WriteString("\n")

	sb.WriteString("Trailing Load Average\n")
	for _, t := range r.Trailing {
		fmt.Fprintf(&sb, "%s: Load %d (%.1f/day)\n", t.Date, t.Load, t.DailyAvg)
	}
	sb.WriteString("\n")

	sb.WriteString("Monthly Zone Breakdown\n")
	writeZones(&sb, r.Monthly)
	sb.WriteString("\n")

	return sb.String()
}

func writeZones(sb *strings.Builder, zd []ZoneDuration) {
	for _, z := range zd {
		fmt.Fprintf(sb, "Zone %d: %s\n", z.Zone, PrettyDuration(z.Seconds))
	}
}

// PrettyDuration formats seconds as "D days, H hours, and M minutes",
// dropping leading units that are zero. Partial minutes are truncated.
func PrettyDuration(seconds float64) string {
	total := int(math.Floor(seconds))
	if total < 0 {
		total = 0
	}
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d days, %d hours, and %d minutes", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%d hours and %d minutes", hours, minutes)
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}
