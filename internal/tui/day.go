package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"garmin-zones/internal/daily"
	"garmin-zones/internal/zones"
)

// DayModel shows one day's activities and zone map in a scrollable viewport
type DayModel struct {
	days       DaySource
	date       string
	activities []daily.ActivityRecord
	zoneMap    zones.ZoneMap
	viewport   viewport.Model
	loading    bool
	err        error
	ready      bool
}

// NewDayModel creates a day model for date
func NewDayModel(days DaySource, date string, width, height int) DayModel {
	m := DayModel{
		days:    days,
		date:    date,
		loading: true,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

// Init initializes the day screen
func (m DayModel) Init() tea.Cmd {
	return m.loadDay
}

type dayLoadedMsg struct {
	date       string
	activities []daily.ActivityRecord
	zoneMap    zones.ZoneMap
	err        error
}

func (m DayModel) loadDay() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	d, err := m.days.GetDay(ctx, m.date)
	if err != nil {
		return dayLoadedMsg{date: m.date, err: err}
	}
	return dayLoadedMsg{date: m.date, activities: d.Activities, zoneMap: d.Zones}
}

// Update handles messages
func (m DayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dayLoadedMsg:
		// a slower load for a date we already moved away from
		if msg.date != m.date {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.activities = msg.activities
		m.zoneMap = msg.zoneMap
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if !m.loading {
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadDay
		case "h", "left":
			return m.shift(-1)
		case "l", "right":
			if m.date < m.days.Today() {
				return m.shift(1)
			}
			return m, nil
		}
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// shift moves the screen by n days and reloads
func (m DayModel) shift(n int) (tea.Model, tea.Cmd) {
	t, err := time.Parse(daily.DateLayout, m.date)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.date = t.AddDate(0, 0, n).Format(daily.DateLayout)
	m.loading = true
	return m, m.loadDay
}

// View renders the day screen
func (m DayModel) View() string {
	if m.loading {
		return fmt.Sprintf("\n  Loading %s...", m.date)
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  h/l or arrows: previous/next day  j/k: scroll  r: refresh")
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m DayModel) renderContent() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.date))
	sb.WriteString("\n")

	load := zones.LoadMinutes(zones.LoadSeconds(m.zoneMap))
	sb.WriteString(RenderMetric("Load", fmt.Sprintf("%d", load), ""))
	sb.WriteString("\n\n")

	if len(m.activities) == 0 {
		sb.WriteString(mutedStyle.Render("No activities"))
		sb.WriteString("\n")
	}
	for _, a := range m.activities {
		line := fmt.Sprintf("%s  %-20s %8s", a.Start.Format("15:04"), truncateName(a.Name, 20), formatDuration(int(a.Duration().Seconds())))
		if a.DistanceMiles > 0 {
			line += fmt.Sprintf("  %5.2f mi", a.DistanceMiles)
		}
		line += fmt.Sprintf("  load %d", zones.LoadMinutes(zones.LoadSeconds(a.Zones)))
		sb.WriteString(tableRowStyle.Render(line))
		sb.WriteString("\n")
		if a.Description != "" {
			sb.WriteString(mutedStyle.Render("       " + a.Description))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(cardTitleStyle.Render("Zones"))
	sb.WriteString("\n")
	total := m.zoneMap.Total()
	for z, secs := range m.zoneMap {
		share := 0.0
		if total > 0 {
			share = secs / total
		}
		fmt.Fprintf(&sb, "Z%d %s %s\n", z, RenderZoneBar(z, share, 30), formatDuration(int(secs)))
	}

	return sb.String()
}
