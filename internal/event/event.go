// internal/event/event.go
package event

import "github.com/bethropolis/hubmark/internal/theme"

// Type identifies the kind of event.
type Type int

const (
	TypeUnknown Type = iota

	// Renderer events
	TypeRendererReady   // The document reported ready and pending operations were drained
	TypeThemeChanged    // A theme stylesheet was injected or queued
	TypeMarkdownFetched // An async text request completed
	TypePeerConnected   // A page attached to the webview server

	// Host events
	TypeSourceLoaded // The source file was (re)read and pushed to the preview
	TypeAppQuit      // Fired just before the host shuts down
)

func (t Type) String() string {
	switch t {
	case TypeRendererReady:
		return "RendererReady"
	case TypeThemeChanged:
		return "ThemeChanged"
	case TypeMarkdownFetched:
		return "MarkdownFetched"
	case TypePeerConnected:
		return "PeerConnected"
	case TypeSourceLoaded:
		return "SourceLoaded"
	case TypeAppQuit:
		return "AppQuit"
	}
	return "Unknown"
}

// Event is the structure passed through the event bus.
type Event struct {
	Type Type
	Data interface{}
}

// RendererReadyData describes the drain that accompanied the ready transition.
type RendererReadyData struct {
	Drained int // Scripts dispatched during the drain
}

// ThemeChangedData carries the theme that was applied.
type ThemeChangedData struct {
	Theme  theme.ID
	Queued bool // True when the renderer was not ready yet
}

// MarkdownFetchedData carries the text handed to an async getter.
type MarkdownFetchedData struct {
	Text  string
	Acked bool // True when the document answered before the delay
}

// PeerConnectedData identifies the page connection.
type PeerConnectedData struct {
	Remote string
}

// SourceLoadedData contains info about the loaded source file.
type SourceLoadedData struct {
	FilePath string
	Bytes    int
}
