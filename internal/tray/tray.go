// Package tray provides a menu-bar view of the running workout: rep count,
// last feedback and a pause toggle.
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/broadcast"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
)

// maxFeedbackLines is the number of feedback lines shown in the menu.
const maxFeedbackLines = 3

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	title      string
	feedback   []string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuFeedback [maxFeedbackLines]*systray.MenuItem
}

// New creates a new Tray with the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
		title:   Title(coach.Snapshot{}),
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	t.mu.Lock()
	systray.SetTitle(t.title)
	systray.SetTooltip("Form coach")

	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume form analysis")
	systray.AddSeparator()

	for i := range t.menuFeedback {
		t.menuFeedback[i] = systray.AddMenuItem("", "Feedback on the last rep")
		t.menuFeedback[i].Disable()
	}
	t.renderFeedbackLocked()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit the form coach")
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Coaching"
	}
	return "○ Paused"
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Title returns the menu-bar title for a snapshot.
func Title(snap coach.Snapshot) string {
	return fmt.Sprintf("Reps: %d", snap.Reps)
}

// FeedbackLines returns the menu lines for a snapshot's feedback.
func FeedbackLines(snap coach.Snapshot) []string {
	if snap.Feedback == "" {
		return []string{"No reps yet"}
	}
	lines := strings.Split(snap.Feedback, "\n")
	if len(lines) > maxFeedbackLines {
		lines = lines[:maxFeedbackLines]
	}
	return lines
}

// Show updates the title and feedback lines.
func (t *Tray) Show(snap coach.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	title := Title(snap)
	if title != t.title && t.menuToggle != nil {
		systray.SetTitle(title)
	}
	t.title = title
	t.feedback = FeedbackLines(snap)
	t.renderFeedbackLocked()
}

func (t *Tray) renderFeedbackLocked() {
	if t.menuFeedback[0] == nil {
		return
	}
	for i, item := range t.menuFeedback {
		if i < len(t.feedback) {
			item.SetTitle(t.feedback[i])
			item.Show()
		} else {
			item.Hide()
		}
	}
}

// Watch shows every update until the channel closes.
func (t *Tray) Watch(updates <-chan broadcast.Update) {
	for u := range updates {
		t.Show(u.Snapshot)
	}
}

// Status returns the current title and feedback lines.
func (t *Tray) Status() (string, []string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title, append([]string(nil), t.feedback...)
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
