package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"garmin-zones/internal/daily"
	"garmin-zones/internal/report"
	"garmin-zones/internal/zones"
)

type stubReports struct {
	r   *report.Report
	err error
}

func (s stubReports) Build(context.Context) (*report.Report, error) {
	return s.r, s.err
}

type stubDays struct {
	today string
}

func (s stubDays) Today() string { return s.today }

func (s stubDays) GetDay(context.Context, string) (daily.Day, error) {
	return daily.Day{Zones: zones.ZoneMap{0, 0, 600}}, nil
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppNavigation(t *testing.T) {
	a := NewApp(stubReports{}, stubDays{today: "2024-03-10"})

	a.Update(key("?"))
	if a.screen != ScreenHelp {
		t.Fatalf("screen = %v after ?, want help", a.screen)
	}
	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.screen != ScreenDashboard {
		t.Fatalf("screen = %v after esc, want dashboard", a.screen)
	}

	_, cmd := a.Update(key("2"))
	if a.screen != ScreenDay {
		t.Fatalf("screen = %v after 2, want day", a.screen)
	}
	if cmd == nil {
		t.Fatal("switching to the day view should load the day")
	}
	if msg := cmd(); msg.(dayLoadedMsg).date != "2024-03-10" {
		t.Errorf("loaded %+v, want today", msg)
	}
}

func TestDayModelStopsAtToday(t *testing.T) {
	m := NewDayModel(stubDays{today: "2024-03-10"}, "2024-03-10", 80, 40)

	next, cmd := m.Update(key("l"))
	if cmd != nil || next.(DayModel).date != "2024-03-10" {
		t.Errorf("moved past today to %s", next.(DayModel).date)
	}

	prev, _ := m.Update(key("h"))
	if got := prev.(DayModel).date; got != "2024-03-09" {
		t.Errorf("previous day = %s, want 2024-03-09", got)
	}
}

func TestDayModelIgnoresStaleLoad(t *testing.T) {
	m := NewDayModel(stubDays{today: "2024-03-10"}, "2024-03-09", 80, 40)

	next, _ := m.Update(dayLoadedMsg{date: "2024-03-08", zoneMap: zones.ZoneMap{1}})
	if !next.(DayModel).loading {
		t.Error("a load for another date ended loading")
	}
}

func TestDashboardView(t *testing.T) {
	r := &report.Report{
		Daily: report.DailySection{
			Date:       "2024-03-10",
			Activities: []report.ActivitySummary{{Name: "Run", DurationSeconds: 1800, Load: 25}},
		},
		Weekly: []report.WeekStats{
			{Label: "Week of 2024-03-04", Load: 120, StrengthLoad: 30},
			{Label: "Week of 2024-02-26", Load: 100},
		},
	}
	m := NewDashboardModel(stubReports{r: r})
	next, _ := m.Update(m.loadData())

	view := next.(DashboardModel).View()
	for _, want := range []string{"Today 2024-03-10", "Run", "Week of 2024-03-04", "↑ 20"} {
		if !strings.Contains(view, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}
}

func TestLoadTrend(t *testing.T) {
	tests := []struct {
		current, previous int
		want              string
	}{
		{120, 100, "↑ 20"},
		{80, 100, "↓ 20"},
		{100, 100, ""},
		{50, 0, ""},
	}
	for _, tt := range tests {
		if got := loadTrend(tt.current, tt.previous); got != tt.want {
			t.Errorf("loadTrend(%d, %d) = %q, want %q", tt.current, tt.previous, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0m"},
		{59, "0m"},
		{300, "5m"},
		{3660, "1h 1m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
