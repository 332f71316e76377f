// Package dashboard provides the Bubble Tea logbook dashboard.
package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/rangebook/internal/metrics"
	"github.com/verte-zerg/rangebook/internal/model"
	"github.com/verte-zerg/rangebook/internal/report"
)

const (
	tabSessions = iota
	tabMaintenance
	tabCosts
	tabTrend
)

const plotHeight = 10

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")).Bold(true)
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FBF7F"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Loader loads report snapshots.
type Loader interface {
	Load(ctx context.Context, filter model.SessionFilter) (report.Snapshot, error)
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	loader Loader
	cfg    model.ReportConfig
	now    func() time.Time

	snapshot report.Snapshot
	report   report.Report
	loaded   bool
	errMsg   string

	tabs         []string
	activeTab    int
	viewports    []viewport.Model
	sessionTable table.Model

	width  int
	height int
}

// NewModel constructs a dashboard model and loads the first snapshot.
func NewModel(loader Loader, cfg model.ReportConfig, now func() time.Time) *Model {
	if now == nil {
		now = time.Now
	}
	m := &Model{
		loader: loader,
		cfg:    cfg,
		now:    now,
		tabs:   []string{"Sessions", "Maintenance", "Costs", "Trend"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.sessionTable = table.New(
		table.WithColumns(sessionColumns()),
		table.WithFocused(true),
		table.WithStyles(sessionTableStyles()),
	)
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.reload()
			return m, nil
		case "c":
			m.cycleCurrency()
			return m, nil
		case "g", "home":
			if m.activeTab == tabSessions {
				m.sessionTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabSessions {
				m.sessionTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabSessions {
			m.sessionTable, cmd = m.sessionTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// reload fetches a fresh snapshot and rebuilds the report.
func (m *Model) reload() {
	snap, err := m.loader.Load(context.Background(), m.cfg.Filter)
	if err != nil {
		m.errMsg = err.Error()
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.snapshot = snap
	m.loaded = true
	m.rebuild()
}

// rebuild recomputes derived values from the current snapshot.
func (m *Model) rebuild() {
	m.report = report.Build(m.snapshot, m.cfg, m.now())
	rows := make([]table.Row, 0, len(m.report.Rows))
	for _, row := range m.report.Rows {
		rows = append(rows, table.Row(report.SessionCells(row, m.report.Converter)))
	}
	m.sessionTable.SetRows(rows)
	m.renderTabContents()
}

// cycleCurrency switches the display currency to the next known code.
func (m *Model) cycleCurrency() {
	if !m.loaded {
		return
	}
	codes := m.report.Converter.Rates.Codes()
	if len(codes) == 0 {
		return
	}
	next := codes[0]
	for i, code := range codes {
		if code == m.report.Converter.Display {
			next = codes[(i+1)%len(codes)]
			break
		}
	}
	m.cfg.Currency = next
	m.rebuild()
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabSessions {
		m.sessionTable.Focus()
	} else {
		m.sessionTable.Blur()
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.sessionTable.SetWidth(m.width)
	m.sessionTable.SetHeight(maxInt(1, bodyHeight))
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" || !m.loaded {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load logbook.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabMaintenance].SetContent(renderMaintenance(m.report))
	m.viewports[tabCosts].SetContent(renderText(func(buf *bytes.Buffer) error {
		if err := report.RenderSummary(buf, m.report); err != nil {
			return err
		}
		return report.RenderCosts(buf, m.report)
	}))
	m.viewports[tabTrend].SetContent(renderText(func(buf *bytes.Buffer) error {
		return report.RenderTrend(buf, m.report, report.PlotWidthFor(width), plotHeight, true)
	}))
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return tabs + "\n" + headerStyle.Render(truncateLine(m.settingsSummary(), m.width))
}

func (m *Model) settingsSummary() string {
	f := m.cfg.Filter
	gun := "any"
	if f.GunID != "" {
		gun = f.GunID
	}
	since := "any"
	if f.Since != nil {
		since = f.Since.Format(model.DateLayout)
	}
	currency := strings.ToUpper(m.report.Converter.Display)
	if currency == "" {
		currency = "-"
	}
	return fmt.Sprintf("gun=%s  since=%s  currency=%s  limits=%d rounds/%d days  sessions=%d",
		gun, since, currency, m.report.Thresholds.RoundsLimit, m.report.Thresholds.DaysLimit, len(m.report.Rows))
}

func (m *Model) renderBody() string {
	if m.activeTab == tabSessions {
		if !m.loaded || len(m.report.Rows) == 0 {
			return "No sessions found."
		}
		return mutedStyle.Render(m.sessionTable.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Reload: r  Currency: c  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return help
}

func renderMaintenance(r report.Report) string {
	var b strings.Builder
	if len(r.Alerts) == 0 {
		b.WriteString(greenStyle.Render("No maintenance alerts."))
		b.WriteString("\n\n")
	} else {
		b.WriteString("Alerts\n")
		for _, a := range r.Alerts {
			b.WriteString(statusStyle(a.Status).Render(strings.ToUpper(string(a.Status))))
			fmt.Fprintf(&b, "  %s: %s\n", a.Name, a.Reason)
		}
		b.WriteString("\n")
	}
	b.WriteString(renderText(func(buf *bytes.Buffer) error {
		return report.RenderStatuses(buf, r, false)
	}))
	return strings.TrimRight(b.String(), "\n")
}

func statusStyle(s metrics.Status) lipgloss.Style {
	switch s {
	case metrics.StatusRed:
		return redStyle
	case metrics.StatusYellow:
		return yellowStyle
	case metrics.StatusGreen:
		return greenStyle
	default:
		return mutedStyle
	}
}

func renderText(fn func(buf *bytes.Buffer) error) string {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func sessionColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Date", Width: 10},
		{Title: "Gun", Width: 12},
		{Title: "Ammo", Width: 12},
		{Title: "Shots", Width: 5},
		{Title: "Hits", Width: 5},
		{Title: "Acc", Width: 5},
		{Title: "Disp", Width: 6},
		{Title: "Score", Width: 5},
		{Title: "Cost", Width: 12},
	}
}

func sessionTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#5A4A2A")).
		Bold(false)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// truncateLine shortens unstyled text to the given display width.
func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
