package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"garmin-zones/internal/daily"
	"garmin-zones/internal/report"
)

// loadTimeout bounds a single screen load; a cold report walks weeks of days
const loadTimeout = 2 * time.Minute

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenDay
	ScreenHelp
)

// ReportBuilder produces the stats report shown on the dashboard
type ReportBuilder interface {
	Build(ctx context.Context) (*report.Report, error)
}

// DaySource loads a single day for the day screen
type DaySource interface {
	Today() string
	GetDay(ctx context.Context, date string) (daily.Day, error)
}

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard DashboardModel
	day       DayModel
	help      HelpModel

	// Services
	reports ReportBuilder
	days    DaySource

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App with all dependencies
func NewApp(reports ReportBuilder, days DaySource) *App {
	return &App{
		screen:    ScreenDashboard,
		reports:   reports,
		days:      days,
		dashboard: NewDashboardModel(reports),
		day:       NewDayModel(days, days.Today(), 0, 0),
		help:      NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "1":
			a.screen = ScreenDashboard
			return a, nil
		case "2":
			if a.screen != ScreenDay {
				a.screen = ScreenDay
				a.day = NewDayModel(a.days, a.days.Today(), a.width, a.height)
				return a, a.day.Init()
			}
		case "?":
			a.prevScreen = a.screen
			a.screen = ScreenHelp
			return a, nil
		case "esc":
			if a.screen == ScreenHelp {
				a.screen = a.prevScreen
				return a, nil
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// the day viewport tracks the window even while hidden
		m, cmd := a.day.Update(msg)
		a.day = m.(DayModel)
		return a, cmd
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		var m tea.Model
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenDay:
		var m tea.Model
		m, cmd = a.day.Update(msg)
		a.day = m.(DayModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenDay:
		content = a.day.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Garmin Zone Time & Training Load")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Day", ScreenDay},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}
