package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"garmin-zones/internal/report"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	reports ReportBuilder
	data    *report.Report
	loading bool
	err     error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(reports ReportBuilder) DashboardModel {
	return DashboardModel{
		reports: reports,
		loading: true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	data, err := m.reports.Build(ctx)
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{data: data}
}

type dashboardDataMsg struct {
	data *report.Report
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading report (the first load fetches every day of the month)..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil {
		return "\n  No data available."
	}

	var sections []string

	// Top row: today and this week side by side
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderTodayCard(), "  ", m.renderWeekCard())
	sections = append(sections, topRow)

	if len(m.data.Trailing) > 2 {
		sections = append(sections, m.renderChart())
	}

	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderWeeklyTable(), "  ", m.renderMonthlyZones())
	sections = append(sections, bottomRow)

	help := statusStyle.Render("Press 'r' to refresh, '2' for the day view")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderTodayCard() string {
	title := cardTitleStyle.Render("Today " + m.data.Daily.Date)

	var lines []string
	for _, a := range m.data.Daily.Activities {
		lines = append(lines, RenderMetric(truncateName(a.Name, 18), fmt.Sprintf("%s  load %d", formatDuration(int(a.DurationSeconds)), a.Load), ""))
	}
	if len(lines) == 0 {
		lines = append(lines, mutedStyle.Render("No activities yet"))
	}

	var activeSecs float64
	for _, z := range m.data.Daily.Zones {
		if z.Zone > 0 {
			activeSecs += z.Seconds
		}
	}
	lines = append(lines, "", RenderMetric("Time above zone 0", formatDuration(int(activeSecs)), ""))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderWeekCard() string {
	title := cardTitleStyle.Render("This Week")
	if len(m.data.Weekly) == 0 {
		return cardStyle.Width(34).Render(title)
	}

	this := m.data.Weekly[0]
	trend := ""
	if len(m.data.Weekly) > 1 {
		trend = loadTrend(this.Load, m.data.Weekly[1].Load)
	}

	lines := []string{
		RenderMetric("Load", fmt.Sprintf("%d", this.Load), trend),
		RenderMetric("Strength", fmt.Sprintf("%d min", this.StrengthLoad), ""),
		RenderMetric("Zone 2+", formatDuration(int(this.Zone2PlusSeconds)), ""),
	}
	if len(m.data.Trailing) > 0 {
		lines = append(lines, RenderMetric("Daily average", fmt.Sprintf("%.1f", m.data.Trailing[0].DailyAvg), ""))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(34).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderChart() string {
	title := cardTitleStyle.Render("Trailing 7-day Load")

	// Trailing is most recent first; plot oldest first
	data := make([]float64, len(m.data.Trailing))
	for i, t := range m.data.Trailing {
		data[len(data)-1-i] = float64(t.Load)
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(0),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderWeeklyTable() string {
	title := cardTitleStyle.Render("Weekly Load")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-20s  %5s  %8s", "Week", "Load", "Strength"))
	rows := []string{header}
	for _, w := range m.data.Weekly {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-20s  %5d  %8d", w.Label, w.Load, w.StrengthLoad)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m DashboardModel) renderMonthlyZones() string {
	title := cardTitleStyle.Render("Monthly Zones")

	var total float64
	for _, z := range m.data.Monthly {
		total += z.Seconds
	}

	var lines []string
	for _, z := range m.data.Monthly {
		share := 0.0
		if total > 0 {
			share = z.Seconds / total
		}
		lines = append(lines, fmt.Sprintf("Z%d %s %s", z.Zone, RenderZoneBar(z.Zone, share, 20), formatDuration(int(z.Seconds))))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

// loadTrend compares this week's load to last week's
func loadTrend(current, previous int) string {
	switch {
	case previous == 0 || current == previous:
		return ""
	case current > previous:
		return fmt.Sprintf("↑ %d", current-previous)
	default:
		return fmt.Sprintf("↓ %d", previous-current)
	}
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
