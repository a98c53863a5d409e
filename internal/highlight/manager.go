// Package highlight runs the source highlighter off the UI goroutine,
// debouncing bursts of file changes.
package highlight

import (
	"context"
	"sync"
	"time"

	"github.com/bethropolis/hubmark/internal/highlighter"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/loop"
)

// DebounceHighlightDuration is how long Update waits for further changes.
const DebounceHighlightDuration = 65 * time.Millisecond

// Manager handles debounced asynchronous syntax highlighting
type Manager struct {
	highlighter *highlighter.Highlighter
	dispatcher  loop.Dispatcher
	deliver     func(highlighter.HighlightResult)

	mu         sync.Mutex
	stopTimer  func() bool
	cancelFunc context.CancelFunc
	pending    []byte
	generation uint64
	closed     bool
}

// NewManager creates a manager. deliver runs on the dispatcher with each
// finished result; results superseded by a newer Update are dropped.
func NewManager(h *highlighter.Highlighter, d loop.Dispatcher, deliver func(highlighter.HighlightResult)) *Manager {
	return &Manager{
		highlighter: h,
		dispatcher:  d,
		deliver:     deliver,
	}
}

// Update schedules a highlight of source, resetting the debounce timer.
func (m *Manager) Update(source []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.pending = source
	m.generation++
	if m.stopTimer != nil {
		m.stopTimer()
		logger.DebugTagf("highlight", "HighlightingManager: Debounce timer reset.")
	}
	if m.cancelFunc != nil {
		m.cancelFunc() // A running task is now stale
		m.cancelFunc = nil
	}
	m.stopTimer = m.dispatcher.AfterFunc(DebounceHighlightDuration, m.runHighlightUpdate)
}

// runHighlightUpdate starts the background task for the pending source.
func (m *Manager) runHighlightUpdate() {
	m.mu.Lock()
	m.stopTimer = nil
	if m.closed || m.pending == nil {
		m.mu.Unlock()
		return
	}
	source := m.pending
	m.pending = nil
	gen := m.generation
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFunc = cancel
	m.mu.Unlock()

	logger.DebugTagf("highlight", "HighlightingManager: starting background highlight of %d bytes", len(source))
	go func() {
		defer cancel()
		result, err := m.highlighter.Highlight(ctx, source)
		if err != nil {
			if ctx.Err() != nil {
				logger.DebugTagf("highlight", "HighlightingManager: Highlight task cancelled.")
				return
			}
			logger.Warnf("HighlightingManager: Background highlighting failed: %v", err)
			result = make(highlighter.HighlightResult)
		}
		m.dispatcher.Post(func() {
			m.mu.Lock()
			current := gen == m.generation && !m.closed
			m.mu.Unlock()
			if !current {
				logger.DebugTagf("highlight", "HighlightingManager: dropping stale result")
				return
			}
			m.deliver(result)
		})
	}()
}

// Shutdown cancels any pending/running tasks
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.cancelFunc != nil {
		m.cancelFunc()
		m.cancelFunc = nil
	}
	if m.stopTimer != nil {
		m.stopTimer()
		m.stopTimer = nil
	}
}
