package app

import (
	"github.com/bethropolis/hubmark/internal/event"
	"github.com/bethropolis/hubmark/internal/logger"
)

// subscribeEvents wires the status bar to facade and host events.
func (a *App) subscribeEvents() {
	a.events.Subscribe(event.TypeRendererReady, a.handleRendererReady)
	a.events.Subscribe(event.TypeThemeChanged, a.handleThemeChanged)
	a.events.Subscribe(event.TypeMarkdownFetched, a.handleMarkdownFetched)
	a.events.Subscribe(event.TypePeerConnected, a.handlePeerConnected)
	a.events.Subscribe(event.TypeSourceLoaded, a.handleSourceLoaded)
	a.events.Subscribe(event.TypeAppQuit, func(event.Event) bool {
		logger.Infof("Shutting down preview at %s", a.server.URL())
		return false
	})
}

func (a *App) handleRendererReady(e event.Event) bool {
	if data, ok := e.Data.(event.RendererReadyData); ok {
		a.statusBar.SetTemporaryMessage("Renderer ready (%d queued script(s) sent)", data.Drained)
	}
	a.refreshStatus()
	return false // Not consumed
}

// handleThemeChanged follows the preview theme in the terminal too.
func (a *App) handleThemeChanged(e event.Event) bool {
	data, ok := e.Data.(event.ThemeChangedData)
	if !ok {
		return false
	}
	if th, err := a.themes.Get(data.Theme); err == nil {
		a.activeTheme = th
	}
	if data.Queued {
		a.statusBar.SetTemporaryMessage("Theme %s queued until the renderer is ready", data.Theme)
	} else {
		a.statusBar.SetTemporaryMessage("Theme set to %s", data.Theme)
	}
	a.refreshStatus()
	return false
}

func (a *App) handleMarkdownFetched(e event.Event) bool {
	if data, ok := e.Data.(event.MarkdownFetchedData); ok {
		how := "cached"
		if data.Acked {
			how = "answered"
		}
		logger.DebugTagf("app", "async get delivered %d bytes (%s)", len(data.Text), how)
	}
	return false
}

func (a *App) handlePeerConnected(e event.Event) bool {
	if data, ok := e.Data.(event.PeerConnectedData); ok {
		a.statusBar.SetTemporaryMessage("Page connected from %s", data.Remote)
	}
	a.refreshStatus()
	return false
}

func (a *App) handleSourceLoaded(e event.Event) bool {
	if data, ok := e.Data.(event.SourceLoadedData); ok {
		a.statusBar.SetFileInfo(data.FilePath)
		logger.DebugTagf("app", "pushed %d bytes from '%s'", data.Bytes, data.FilePath)
	}
	a.redraw()
	return false
}
