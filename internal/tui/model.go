// Package tui renders poll snapshots in a terminal dashboard. It is a pure
// consumer: all data arrives as immutable snapshots from the polling loop.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"dropctl/internal/station"
	"dropctl/internal/telemetry"
)

// SnapshotMsg delivers a poll cycle result to the model.
type SnapshotMsg struct {
	Snapshot station.Snapshot
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	staleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	unkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	metricStyle = lipgloss.NewStyle().PaddingRight(3)
)

const maxLogLines = 200

// Model is the watch dashboard: header, today's metrics, recent records,
// and a scrolling event log.
type Model struct {
	deviceAddr string
	table      table.Model
	vp         viewport.Model
	logs       []string
	snap       *station.Snapshot
	width      int
}

// New builds the dashboard model for the given device.
func New(deviceAddr string) Model {
	cols := []table.Column{
		{Title: "Local time", Width: 20},
		{Title: "Drop", Width: 6},
		{Title: "Lat", Width: 10},
		{Title: "Lon", Width: 11},
		{Title: "Alt m", Width: 7},
		{Title: "Spd m/s", Width: 8},
		{Title: "Sats", Width: 5},
		{Title: "Fix", Width: 4},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(12), table.WithFocused(true))
	return Model{
		deviceAddr: deviceAddr,
		table:      t,
		vp:         viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.vp.Width = msg.Width
		m.vp.Height = max(3, msg.Height-m.table.Height()-8)
	case SnapshotMsg:
		m.snap = &msg.Snapshot
		m.table.SetRows(recordRows(msg.Snapshot.Records))
		m.appendLog(cycleLine(msg.Snapshot))
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) appendLog(line string) {
	if m.width > 0 {
		line = wordwrap.String(line, m.width)
	}
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.vp.SetContent(strings.Join(m.logs, "\n"))
	m.vp.GotoBottom()
}

// View implements tea.Model.
func (m Model) View() string {
	header := titleStyle.Render("dropctl watch") + "  " +
		labelStyle.Render("device ") + valueStyle.Render(m.deviceAddr)
	if m.snap == nil {
		return header + "\n\n" + labelStyle.Render("waiting for first poll cycle... (q quits)")
	}
	s := m.snap

	status := unkStyle.Render("unreachable")
	if s.Info != nil {
		st := valueStyle.Render(s.State)
		switch s.State {
		case "running":
			st = okStyle.Render(s.State)
		case "error":
			st = badStyle.Render(s.State)
		}
		status = fmt.Sprintf("%s %s  %s %s  %s %s",
			labelStyle.Render("state"), st,
			labelStyle.Render("records"), valueStyle.Render(strconv.FormatInt(s.Info.Records, 10)),
			labelStyle.Render("fw"), valueStyle.Render(s.Info.Firmware))
	}
	if s.Err != nil {
		status += "  " + staleStyle.Render("stale: "+s.Err.Error())
	}

	metrics := lipgloss.JoinHorizontal(lipgloss.Top,
		metricStyle.Render(metric("rows today", strconv.Itoa(s.Today.TotalRows))),
		metricStyle.Render(metric("valid fix", strconv.Itoa(s.Today.ValidFixRows))),
		metricStyle.Render(metric("avg speed", fmtOpt(s.Today.AvgSpeedMPS, 2, " m/s"))),
		metricStyle.Render(metric("dropped", strconv.Itoa(s.Dropped))),
	)

	fetched := labelStyle.Render("fetched " + s.FetchedAt.Format("15:04:05"))

	return header + "\n" + status + "\n" + metrics + "  " + fetched + "\n\n" +
		m.table.View() + "\n" + m.vp.View()
}

func metric(label, value string) string {
	return labelStyle.Render(label+" ") + valueStyle.Render(value)
}

func cycleLine(s station.Snapshot) string {
	ts := s.FetchedAt.Format(time.RFC3339)
	if s.Err != nil {
		return fmt.Sprintf("[%s] poll failed: %v", ts, s.Err)
	}
	return fmt.Sprintf("[%s] fetched %d records (%d dropped), today=%d rows",
		ts, len(s.Records), s.Dropped, s.Today.TotalRows)
}

func recordRows(records []telemetry.Record) []table.Row {
	rows := make([]table.Row, 0, len(records))
	// Newest first, the way the operator scans it.
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		rows = append(rows, table.Row{
			r.LocalTime.Format("2006-01-02 15:04:05"),
			fmtOptInt(r.DropID),
			fmtOpt(r.Lat, 5, ""),
			fmtOpt(r.Lon, 5, ""),
			fmtOpt(r.Alt, 1, ""),
			fmtOpt(r.SpeedMPS, 2, ""),
			fmtOptInt(r.Satellites),
			fixCell(r.FixOK),
		})
	}
	return rows
}

// fixCell keeps the tri-state visible: a missing flag is unknown, not bad.
func fixCell(fix *bool) string {
	switch {
	case fix == nil:
		return unkStyle.Render("?")
	case *fix:
		return okStyle.Render("ok")
	default:
		return badStyle.Render("no")
	}
}

func fmtOpt(v *float64, prec int, suffix string) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64) + suffix
}

func fmtOptInt(v *int64) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatInt(*v, 10)
}
