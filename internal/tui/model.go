// Package tui provides the Bubble Tea competition views.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typerace/internal/clock"
	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/race"
	"github.com/verte-zerg/typerace/internal/stats"
)

// Controller routes user actions to the engine goroutine.
type Controller interface {
	Do(fn func(*race.Engine))
}

// SnapshotMsg carries a new engine frame into the program.
type SnapshotMsg race.Snapshot

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	markerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	countdownStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A")).Padding(1, 4).Border(lipgloss.RoundedBorder())
)

// Model is the participant view.
type Model struct {
	ctrl Controller
	snap race.Snapshot

	width  int
	height int

	confirming bool
}

// NewModel returns a participant view driven by ctrl.
func NewModel(ctrl Controller) *Model {
	return &Model{ctrl: ctrl, snap: race.Snapshot{Loading: true, Role: model.RoleParticipant}}
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
		return m, nil
	case SnapshotMsg:
		m.snap = race.Snapshot(msg)
		if !m.snap.NeedsConfirmation() {
			m.confirming = false
		}
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirming {
		m.confirming = false
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && (msg.Runes[0] == 'y' || msg.Runes[0] == 'Y') {
			m.ctrl.Do(func(e *race.Engine) { e.Submit() })
		}
		return nil
	}
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit
	case tea.KeyCtrlR:
		m.ctrl.Do(func(e *race.Engine) { e.Reset() })
	case tea.KeyCtrlS:
		if m.snap.NeedsConfirmation() {
			m.confirming = true
			return nil
		}
		m.ctrl.Do(func(e *race.Engine) { e.Submit() })
	case tea.KeyBackspace, tea.KeyDelete:
		m.ctrl.Do(func(e *race.Engine) { e.Backspace() })
	case tea.KeySpace:
		m.ctrl.Do(func(e *race.Engine) { e.Type(' ') })
	case tea.KeyRunes:
		runes := append([]rune(nil), msg.Runes...)
		m.ctrl.Do(func(e *race.Engine) {
			for _, r := range runes {
				e.Type(r)
			}
		})
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.snap.Loading {
		return m.place("Loading competition…", "")
	}
	if m.snap.Countdown > 0 {
		return m.place(countdownStyle.Render(fmt.Sprintf("%d", m.snap.Countdown)), m.renderFooter())
	}

	parts := []string{renderHeader(m.snap), ""}
	parts = append(parts, m.renderText())
	if n := len(m.snap.Markers); n > 0 {
		parts = append(parts, "", markerStyle.Render(m.snap.Markers[n-1]))
	}
	if m.snap.Status == model.StatusEnded {
		parts = append(parts, "", renderLeaderboard(m.snap.Standings))
	}
	if m.confirming {
		parts = append(parts, "", noticeStyle.Render("Jumble not finished. Submit anyway? (y/n)"))
	}
	return m.place(strings.Join(parts, "\n"), m.renderFooter())
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) renderText() string {
	width := m.contentWidth()
	target := []rune(m.snap.Target)
	typed := []rune(m.snap.Typed)
	switch m.snap.Mode {
	case model.ModeReverse, model.ModeJumbleWord:
		prompt := renderGlyphs(paintTarget([]rune(m.snap.Display), nil, -1), width)
		return prompt + "\n\n" + renderGlyphs(paintTyped(target, typed), width)
	default:
		cursor := -1
		if m.snap.InputEnabled && len(typed) < len(target) {
			cursor = len(typed)
		}
		return renderGlyphs(paintTarget(target, typed, cursor), width)
	}
}

func (m *Model) renderFooter() string {
	s := m.snap
	wpm, acc, elapsed := stats.Rounded(s.Metrics)
	segments := []string{
		fmt.Sprintf("WPM %d", wpm),
		fmt.Sprintf("Accuracy %d%%", acc),
		fmt.Sprintf("Time %ds", elapsed),
	}
	if s.Mode.Repeats() && s.RepeatCount > 0 {
		segments = append(segments, fmt.Sprintf("Repeats %d", s.RepeatCount))
	}
	if s.Rank > 0 {
		segments = append(segments, fmt.Sprintf("Rank #%d of %d", s.Rank, s.Participants))
	}
	if s.Submissions > 0 {
		segments = append(segments, "Submitted")
	}
	segments = append(segments, "ctrl+r reset · ctrl+s submit · ctrl+c quit")
	return footerStyle.Render(strings.Join(segments, "  "))
}

// place centers content and pins the footer to the last line.
func (m *Model) place(content, footer string) string {
	return placeView(m.width, m.height, content, footer)
}

func placeView(width, height int, content, footer string) string {
	if width == 0 || height == 0 {
		if footer == "" {
			return content
		}
		return content + "\n" + footer
	}
	if footer == "" || height < 3 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(width, height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func renderHeader(s race.Snapshot) string {
	title := titleStyle.Render(s.Title)
	var status string
	switch s.Status {
	case model.StatusWaiting:
		status = fmt.Sprintf("Starts in %s", clock.Format(s.UntilStart))
	case model.StatusActive:
		status = fmt.Sprintf("Time left %s", clock.Format(s.Remaining))
	default:
		status = "Competition ended"
	}
	return title + "  " + footerStyle.Render(string(s.Mode)+" · "+status)
}

func renderLeaderboard(standings []model.Standing) string {
	var b strings.Builder
	if err := stats.RenderStandings(&b, standings); err != nil {
		return err.Error()
	}
	return strings.TrimRight(b.String(), "\n")
}
