package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"garmin-zones/internal/zones"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Keyboard Shortcuts"))

	sections = append(sections, m.renderSection("Navigation", []keyHelp{
		{"1", "Dashboard"},
		{"2", "Day view (starts at today)"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Close help"},
	}))

	sections = append(sections, m.renderSection("Dashboard", []keyHelp{
		{"r", "Rebuild the report"},
	}))

	sections = append(sections, m.renderSection("Day View", []keyHelp{
		{"h / left", "Previous day"},
		{"l / right", "Next day (up to today)"},
		{"j / k", "Scroll"},
		{"r", "Reload the day"},
	}))

	sections = append(sections, m.renderZonesHelp())
	sections = append(sections, m.renderLoadHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func sectionTitle(title string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render(title)
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	lines := []string{"", sectionTitle(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func (m HelpModel) renderZonesHelp() string {
	lines := []string{"", sectionTitle("Heart Rate Zones"), ""}

	bounds := []string{
		"below 98 bpm",
		"98 to 116 bpm",
		"117 to 136 bpm",
		"137 to 155 bpm",
		"156 to 175 bpm",
		"above 175 bpm",
	}
	for z, b := range bounds {
		label := lipgloss.NewStyle().Foreground(zoneColors[z]).Bold(true).Render(fmt.Sprintf("Z%d", z))
		lines = append(lines, fmt.Sprintf("  %s %s", label, mutedStyle.Render(b)))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderLoadHelp() string {
	lines := []string{"", sectionTitle("Load Explained"), ""}

	items := []struct {
		name string
		desc string
	}{
		{"Load", fmt.Sprintf("Minutes in zones 2-5, plus half the minutes in zone 1. Zone 0 counts for nothing. (%d zones)", zones.NumZones)},
		{"ZONE(n) marker", "An activity whose description contains ZONE(1), ZONE(2) or ZONE(3) credits its time to at least that zone."},
		{"Strength", "Load from strength training activities only."},
		{"Trailing load", "Load summed over the 7 days ending on each date, and its daily average."},
	}

	for _, it := range items {
		lines = append(lines, "  "+helpKeyStyle.Render(it.name))
		lines = append(lines, "  "+mutedStyle.Render(it.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
