package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/race"
	"github.com/verte-zerg/typerace/internal/stats"
)

const (
	trackWidth   = 30
	nameWidth    = 20
	tableMaxRows = 10
)

// OrganizerModel is the organizer dashboard.
type OrganizerModel struct {
	ctrl  Controller
	snap  race.Snapshot
	table table.Model
	track progress.Model

	width  int
	height int

	notice   string
	noticeID int
}

// NewOrganizerModel returns an organizer view driven by ctrl.
func NewOrganizerModel(ctrl Controller) *OrganizerModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Participant", Width: nameWidth},
			{Title: "WPM", Width: 5},
			{Title: "Accuracy", Width: 8},
		}),
		table.WithHeight(tableMaxRows),
	)
	return &OrganizerModel{
		ctrl:  ctrl,
		snap:  race.Snapshot{Loading: true, Role: model.RoleOrganizer},
		table: t,
		track: progress.New(progress.WithDefaultGradient(), progress.WithWidth(trackWidth), progress.WithoutPercentage()),
	}
}

// Init implements tea.Model.
func (m *OrganizerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *OrganizerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case SnapshotMsg:
		m.snap = race.Snapshot(msg)
		if m.snap.NoticeID != m.noticeID {
			m.noticeID = m.snap.NoticeID
			m.notice = m.snap.Notice
		}
		m.table.SetRows(standingRows(m.snap.Standings))
		return m, nil
	case tea.KeyMsg:
		m.notice = ""
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m, tea.Quit
		case msg.Type != tea.KeyRunes || len(msg.Runes) != 1:
			return m, nil
		}
		switch msg.Runes[0] {
		case 'q':
			return m, tea.Quit
		case 's':
			m.ctrl.Do(func(e *race.Engine) { e.StartNow() })
		case 'x':
			m.ctrl.Do(func(e *race.Engine) { e.Stop() })
		case 'r':
			m.ctrl.Do(func(e *race.Engine) { e.Restart() })
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *OrganizerModel) View() string {
	footer := footerStyle.Render("s start now · x stop · r restart · q quit")
	if m.snap.Loading {
		return placeView(m.width, m.height, "Loading competition…", footer)
	}
	parts := []string{
		renderHeader(m.snap),
		footerStyle.Render(fmt.Sprintf("%d participants", m.snap.Participants)),
		"",
		m.table.View(),
		"",
		m.renderTracks(),
	}
	if m.notice != "" {
		parts = append(parts, "", noticeStyle.Render(m.notice))
	}
	return placeView(m.width, m.height, strings.Join(parts, "\n"), footer)
}

// renderTracks draws one bar per participant scaled to the leader's WPM.
func (m *OrganizerModel) renderTracks() string {
	standings := m.snap.Standings
	if len(standings) == 0 {
		return footerStyle.Render("No results yet.")
	}
	top := stats.TopWPM(standings)
	lines := make([]string, 0, len(standings))
	for i, s := range standings {
		if i == tableMaxRows {
			break
		}
		pct := 0.0
		if top > 0 {
			pct = s.WPM / top
		}
		lines = append(lines, fmt.Sprintf("%-*s %s %3.0f", nameWidth, truncate(displayName(s), nameWidth), m.track.ViewAs(pct), s.WPM))
	}
	return strings.Join(lines, "\n")
}

func standingRows(standings []model.Standing) []table.Row {
	rows := make([]table.Row, 0, len(standings))
	for i, s := range standings {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			displayName(s),
			fmt.Sprintf("%.0f", s.WPM),
			fmt.Sprintf("%.0f%%", s.Accuracy),
		})
	}
	return rows
}

func displayName(s model.Standing) string {
	if s.ParticipantName != "" {
		return s.ParticipantName
	}
	return s.ParticipantID
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
