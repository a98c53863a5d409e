// internal/tui/tui.go
package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/loop"
	"github.com/bethropolis/hubmark/internal/theme"
	"github.com/gdamore/tcell/v2"
)

var _ loop.Dispatcher = (*TUI)(nil)

// TUI manages the terminal screen using tcell. It doubles as the host event
// loop: posted functions arrive as interrupt events in PollEvent order.
type TUI struct {
	screen tcell.Screen
}

// New creates and initializes a new TUI instance.
func New(activeTheme *theme.Theme) (*TUI, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create tcell screen: %w", err)
	}
	return NewWithScreen(s, activeTheme)
}

// NewWithScreen initializes s, e.g. a simulation screen in tests.
func NewWithScreen(s tcell.Screen, activeTheme *theme.Theme) (*TUI, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize tcell screen: %w", err)
	}
	t := &TUI{screen: s}
	t.SetTheme(activeTheme)
	return t, nil
}

// SetTheme uses the theme's default style for the screen background.
func (t *TUI) SetTheme(activeTheme *theme.Theme) {
	if activeTheme != nil {
		t.screen.SetStyle(activeTheme.GetStyle("Default"))
	}
}

// Close finalizes the tcell screen.
func (t *TUI) Close() {
	if t.screen != nil {
		t.screen.Fini()
	}
}

// PollEvent retrieves the next event.
func (t *TUI) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// Post implements loop.Dispatcher.
func (t *TUI) Post(fn func()) {
	if fn == nil {
		return
	}
	ev := tcell.NewEventInterrupt(fn)
	if err := t.screen.PostEvent(ev); err != nil {
		// Queue full; wait off the caller, which may be the event loop itself.
		logger.DebugTagf("tui", "event queue full, posting in background")
		go t.screen.PostEventWait(ev)
	}
}

// AfterFunc implements loop.Dispatcher.
func (t *TUI) AfterFunc(d time.Duration, fn func()) func() bool {
	var (
		mu   sync.Mutex
		done bool
	)
	timer := time.AfterFunc(d, func() {
		t.Post(func() {
			mu.Lock()
			if done {
				mu.Unlock()
				return
			}
			done = true
			mu.Unlock()
			fn()
		})
	})
	return func() bool {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return false
		}
		done = true
		timer.Stop()
		return true
	}
}

// RunInterrupt runs a function delivered by Post. It reports whether ev was one.
func RunInterrupt(ev *tcell.EventInterrupt) bool {
	fn, ok := ev.Data().(func())
	if !ok {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("tui: posted function panicked: %v", r)
		}
	}()
	fn()
	return true
}

// Clear clears the entire screen.
func (t *TUI) Clear() {
	t.screen.Clear()
}

// Show makes the changes visible.
func (t *TUI) Show() {
	t.screen.Show()
}

// Sync redraws the whole screen, e.g. after a resize.
func (t *TUI) Sync() {
	t.screen.Sync()
}

// Size returns the width and height of the terminal screen.
func (t *TUI) Size() (int, int) {
	return t.screen.Size()
}

// GetScreen provides direct access (use with caution).
func (t *TUI) GetScreen() tcell.Screen {
	return t.screen
}
