package app

import (
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/bethropolis/hubmark/internal/input"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/theme"
)

// actionCommands maps preview actions to their handlers.
var actionCommands = map[input.Action]func(a *App){
	input.ActionToggleTheme:       (*App).ToggleTheme,
	input.ActionClear:             (*App).Clear,
	input.ActionToggleRedirection: (*App).ToggleRedirection,
	input.ActionSyncGet:           (*App).SyncGet,
	input.ActionAsyncGet:          (*App).AsyncGet,
	input.ActionCopy:              (*App).CopyFetched,
	input.ActionExport:            (*App).Export,
	input.ActionReload:            (*App).Reload,
}

// helpText lists the key bindings for the status bar.
const helpText = "t theme | c clear | r links | s/g get | y copy | e export | l reload | q quit"

// RunKey runs the action bound to r. It reports whether one was bound.
func (a *App) RunKey(r rune) bool {
	return a.runAction(a.keys.ProcessRune(r))
}

// runAction performs a decoded action. Scrolling and quit are handled here;
// everything else goes through actionCommands.
func (a *App) runAction(ev input.ActionEvent) bool {
	switch ev.Action {
	case input.ActionUnknown:
		return false
	case input.ActionQuit:
		a.Quit()
		return false
	case input.ActionScrollUp:
		a.scroll(-1)
	case input.ActionScrollDown:
		a.scroll(1)
	case input.ActionScrollPageUp:
		a.scroll(-a.viewHeight)
	case input.ActionScrollPageDown:
		a.scroll(a.viewHeight)
	case input.ActionScrollTop:
		a.top = 0
	case input.ActionScrollBottom:
		a.top = a.buffer.LineCount()
		a.clampScroll()
	default:
		run, ok := actionCommands[ev.Action]
		if !ok {
			return false
		}
		logger.DebugTagf("app", "action: %s", ev.Action)
		run(a)
		a.refreshStatus()
	}
	return true
}

// ToggleTheme switches the preview to the next theme.
func (a *App) ToggleTheme() {
	themes := a.themes.List()
	next := theme.Default
	for i, th := range themes {
		if th.ID == a.preview.Theme() {
			next = themes[(i+1)%len(themes)].ID
			break
		}
	}
	if err := a.preview.SetTheme(next); err != nil {
		a.statusBar.SetTemporaryMessage("Theme error: %v", err)
	}
}

// Clear empties the preview. The next source change repopulates it.
func (a *App) Clear() {
	a.preview.Clear()
	a.statusBar.SetTemporaryMessage("Preview cleared")
}

// ToggleRedirection flips whether links navigate inside the preview.
func (a *App) ToggleRedirection() {
	on := !a.preview.NativeRedirection()
	a.preview.SetNativeRedirection(on)
	if on {
		a.statusBar.SetTemporaryMessage("Links navigate inside the preview")
	} else {
		a.statusBar.SetTemporaryMessage("Links open externally")
	}
}

// SyncGet reads the cached document text.
func (a *App) SyncGet() {
	if !a.preview.IsReady() {
		a.statusBar.SetTemporaryMessage("Renderer not ready, nothing fetched")
		return
	}
	a.fetched = a.preview.MarkdownText()
	a.statusBar.SetTemporaryMessage("Cached text: %d bytes", len(a.fetched))
}

// AsyncGet asks the document for its current text.
func (a *App) AsyncGet() {
	if !a.preview.IsReady() {
		a.statusBar.SetTemporaryMessage("Renderer not ready, nothing fetched")
		return
	}
	a.statusBar.SetTemporaryMessage("Fetching text...")
	a.preview.MarkdownTextAsync(func(text string) {
		a.fetched = text
		a.statusBar.SetTemporaryMessage("Fetched text: %d bytes", len(text))
		a.refreshStatus()
	})
}

// CopyFetched puts the last fetched text on the system clipboard.
func (a *App) CopyFetched() {
	if a.fetched == "" {
		a.statusBar.SetTemporaryMessage("Nothing fetched yet (s or g)")
		return
	}
	if err := clipboard.WriteAll(a.fetched); err != nil {
		logger.Warnf("Clipboard: %v", err)
		a.statusBar.SetTemporaryMessage("Clipboard error: %v", err)
		return
	}
	a.statusBar.SetTemporaryMessage("Copied %d bytes", len(a.fetched))
}

// Export writes the last fetched text, or the source if nothing was
// fetched, as HTML next to the source file.
func (a *App) Export() {
	src := a.fetched
	if src == "" {
		src = string(a.buffer.Bytes())
	}
	path := exportPath(a.buffer.FilePath())
	if err := a.exporter.WriteFile(path, []byte(src), a.preview.Theme()); err != nil {
		a.statusBar.SetTemporaryMessage("Export failed: %v", err)
		return
	}
	a.statusBar.SetTemporaryMessage("Exported to %s", path)
}

// Reload rereads the source file and pushes it.
func (a *App) Reload() {
	if err := a.buffer.Load(a.buffer.FilePath()); err != nil {
		a.statusBar.SetTemporaryMessage("Reload failed: %v", err)
		return
	}
	a.clampScroll()
	a.pushSource()
	a.statusBar.SetTemporaryMessage("Reloaded")
}

// exportPath swaps the source extension for .html.
func exportPath(source string) string {
	if source == "" {
		return "hubmark.html"
	}
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".html"
}
