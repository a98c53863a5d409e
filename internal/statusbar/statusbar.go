// internal/statusbar/statusbar.go
package statusbar

import (
	"fmt"
	"sync"
	"time"

	"github.com/bethropolis/hubmark/internal/theme"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg" // For proper Unicode width calculation
)

// Config defines the behavior of the status bar.
type Config struct {
	MessageTimeout time.Duration
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		MessageTimeout: 4 * time.Second,
	}
}

// StatusBar represents the UI component for the status line.
type StatusBar struct {
	config Config
	mu     sync.RWMutex // Protect access to text fields

	// Content fields (updated externally)
	filePath string
	url      string
	ready    bool
	peer     bool
	themeID  theme.ID
	redirect bool

	// Temporary message state
	tempMessage     string
	tempMessageTime time.Time
	now             func() time.Time
}

// New creates a new StatusBar with the given configuration.
func New(config Config) *StatusBar {
	return &StatusBar{
		config: config,
		now:    time.Now,
	}
}

// SetFileInfo updates the file path shown in the status bar.
func (sb *StatusBar) SetFileInfo(path string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.filePath = path
}

// SetURL updates the preview address.
func (sb *StatusBar) SetURL(url string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.url = url
}

// SetRendererInfo updates readiness and whether a page is attached.
func (sb *StatusBar) SetRendererInfo(ready, peer bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.ready = ready
	sb.peer = peer
}

// SetPreviewInfo updates the theme and redirection flags.
func (sb *StatusBar) SetPreviewInfo(id theme.ID, redirect bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.themeID = id
	sb.redirect = redirect
}

// SetTemporaryMessage displays a message for a configured duration.
func (sb *StatusBar) SetTemporaryMessage(format string, args ...interface{}) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = fmt.Sprintf(format, args...)
	sb.tempMessageTime = sb.now()
}

// ResetTemporaryMessage clears any temporary message being displayed
func (sb *StatusBar) ResetTemporaryMessage() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = ""
	sb.tempMessageTime = time.Time{}
}

// stateText describes the renderer state. Caller holds the lock.
func (sb *StatusBar) stateText() string {
	switch {
	case sb.ready:
		return "ready"
	case sb.peer:
		return "initializing"
	default:
		return "waiting for page"
	}
}

// getDefaultDisplayText builds the default status line text.
func (sb *StatusBar) getDefaultDisplayText() string {
	fPath := sb.filePath
	if fPath == "" {
		fPath = "[No Name]"
	}
	url := sb.url
	if url == "" {
		url = "-"
	}
	redirect := "off"
	if sb.redirect {
		redirect = "on"
	}
	return fmt.Sprintf("%s -- %s [%s] -- theme: %s -- links: %s",
		fPath, url, sb.stateText(), sb.themeID, redirect)
}

// Text returns the line Draw would render.
func (sb *StatusBar) Text() string {
	text, _ := sb.current()
	return text
}

// current returns the text to show and the theme style key for it, clearing
// an expired temporary message.
func (sb *StatusBar) current() (string, string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	active := !sb.tempMessageTime.IsZero() && sb.now().Sub(sb.tempMessageTime) <= sb.config.MessageTimeout
	if !sb.tempMessageTime.IsZero() && !active {
		sb.tempMessage = ""
		sb.tempMessageTime = time.Time{}
	}
	if active {
		return sb.tempMessage, "StatusBarMessage"
	}
	if sb.ready {
		return sb.getDefaultDisplayText(), "StatusBarReady"
	}
	return sb.getDefaultDisplayText(), "StatusBarPending"
}

// Draw renders the status bar onto the last screen line using visual widths.
func (sb *StatusBar) Draw(screen tcell.Screen, width, height int, activeTheme *theme.Theme) {
	if height <= 0 || width <= 0 {
		return
	}
	y := height - 1

	text, styleKey := sb.current()
	style := activeTheme.GetStyle(styleKey)

	// Fill background first
	barStyle := activeTheme.GetStyle("StatusBar")
	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, barStyle)
	}

	gr := uniseg.NewGraphemes(text)
	currentX := 0
	for gr.Next() {
		clusterWidth := gr.Width()
		if currentX+clusterWidth > width {
			break // Stop if cluster doesn't fit
		}
		runes := gr.Runes()
		screen.SetContent(currentX, y, runes[0], runes[1:], style)
		currentX += clusterWidth
	}
}
