// Package tui provides a terminal viewer that replays a pose recording
// through the feedback session.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/form"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
)

const (
	DefaultFPS = 15
	MaxFPS     = 120
	// historySize is the number of completed reps listed.
	historySize = 5
)

// Feeder processes frames for the viewer. *app.Workout satisfies it.
type Feeder interface {
	Feed(f pose.Frame) coach.Snapshot
	Reset()
}

type tickMsg struct {
	gen int
}

type Model struct {
	feeder Feeder
	frames []pose.Frame
	title  string

	index   int
	snap    coach.Snapshot
	history []string
	fps     int
	paused  bool
	gen     int

	progress progress.Model
	help     help.Model
	width    int
}

// New creates a viewer that replays frames through feeder at fps.
func New(feeder Feeder, frames []pose.Frame, title string, fps int) Model {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if fps > MaxFPS {
		fps = MaxFPS
	}
	return Model{
		feeder:   feeder,
		frames:   frames,
		title:    title,
		fps:      fps,
		progress: progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
	}
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(time.Second/time.Duration(m.fps), func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Done reports whether every frame has been replayed.
func (m Model) Done() bool {
	return m.index >= len(m.frames)
}

// Snapshot returns the latest session snapshot.
func (m Model) Snapshot() coach.Snapshot {
	return m.snap
}

// History returns the completed reps, most recent last.
func (m Model) History() []string {
	return m.history
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(10, msg.Width-4)
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		// Ticks from before a speed change or pause are stale.
		if msg.gen != m.gen || m.paused || m.Done() {
			return m, nil
		}
		m.advance()
		if m.Done() {
			return m, nil
		}
		return m, m.tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Pause):
		m.paused = !m.paused
		m.gen++
		if m.paused || m.Done() {
			return m, nil
		}
		return m, m.tick()

	case key.Matches(msg, Keys.Step):
		if m.paused && !m.Done() {
			m.advance()
		}

	case key.Matches(msg, Keys.Faster):
		return m.setFPS(min(MaxFPS, m.fps*2))

	case key.Matches(msg, Keys.Slower):
		return m.setFPS(max(1, m.fps/2))

	case key.Matches(msg, Keys.Restart):
		m.feeder.Reset()
		m.index = 0
		m.snap = coach.Snapshot{}
		m.history = nil
		m.gen++
		if m.paused {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) setFPS(fps int) (tea.Model, tea.Cmd) {
	if fps == m.fps {
		return m, nil
	}
	m.fps = fps
	m.gen++
	if m.paused || m.Done() {
		return m, nil
	}
	return m, m.tick()
}

func (m *Model) advance() {
	m.snap = m.feeder.Feed(m.frames[m.index])
	m.index++
	if m.snap.RepCompleted {
		line := fmt.Sprintf("Rep %d: %s", m.snap.Reps, strings.ReplaceAll(m.snap.Feedback, "\n", "; "))
		m.history = append(m.history, line)
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")

	b.WriteString(CountStyle.Render(fmt.Sprintf("Reps: %d", m.snap.Reps)))
	b.WriteString("  ")
	b.WriteString(PhaseStyle.Render(fmt.Sprintf("phase %s  frame %d/%d  %d fps", m.snap.Phase, m.index, len(m.frames), m.fps)))
	b.WriteString("\n\n")

	pct := 1.0
	if len(m.frames) > 0 {
		pct = float64(m.index) / float64(len(m.frames))
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	b.WriteString(PanelStyle.Render(m.feedbackView()))
	b.WriteString("\n")

	if len(m.history) > 0 {
		start := max(0, len(m.history)-historySize)
		for _, line := range m.history[start:] {
			b.WriteString(HistoryStyle.Render(line))
			b.WriteString("\n")
		}
	}

	switch {
	case m.Done():
		b.WriteString(StatusStyle.Render("replay finished"))
		b.WriteString("\n")
	case m.paused:
		b.WriteString(StatusStyle.Render("paused"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(Keys))
	return b.String()
}

func (m Model) feedbackView() string {
	if m.snap.Feedback == "" {
		return StatusStyle.Render("waiting for the first rep")
	}
	if m.snap.Feedback == form.MsgGoodForm {
		return GoodFormStyle.Render(m.snap.Feedback)
	}

	lines := strings.Split(m.snap.Feedback, "\n")
	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = FaultStyle.Render("• " + line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

// Run replays frames in a full-screen terminal program and returns the
// final snapshot.
func Run(feeder Feeder, frames []pose.Frame, title string, fps int) (coach.Snapshot, error) {
	final, err := tea.NewProgram(New(feeder, frames, title, fps), tea.WithAltScreen()).Run()
	if err != nil {
		return coach.Snapshot{}, err
	}
	return final.(Model).Snapshot(), nil
}
