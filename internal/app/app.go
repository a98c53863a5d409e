// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bethropolis/hubmark/internal/assets"
	"github.com/bethropolis/hubmark/internal/buffer"
	"github.com/bethropolis/hubmark/internal/config"
	"github.com/bethropolis/hubmark/internal/document"
	"github.com/bethropolis/hubmark/internal/event"
	"github.com/bethropolis/hubmark/internal/export"
	"github.com/bethropolis/hubmark/internal/highlight"
	"github.com/bethropolis/hubmark/internal/highlighter"
	"github.com/bethropolis/hubmark/internal/input"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/loop"
	"github.com/bethropolis/hubmark/internal/preview"
	"github.com/bethropolis/hubmark/internal/statusbar"
	"github.com/bethropolis/hubmark/internal/theme"
	"github.com/bethropolis/hubmark/internal/webview"
)

// Options configures an App.
type Options struct {
	Config   *config.Config
	FilePath string

	// Dispatcher is the host event loop everything runs on.
	Dispatcher loop.Dispatcher
	// Redraw is called on the dispatcher after visible state changes. Optional.
	Redraw func()
	// Highlight enables source highlighting for the terminal pane.
	Highlight bool
}

// App wires the source file, the preview server and the sync facade. Its
// state is only touched on the dispatcher.
type App struct {
	cfg        *config.Config
	dispatcher loop.Dispatcher
	redraw     func()

	themes    *theme.Registry
	server    *webview.Server
	preview   *preview.Preview
	events    *event.Manager
	buffer    *buffer.SliceBuffer
	exporter  *export.Exporter
	statusBar *statusbar.StatusBar
	keys      *input.InputProcessor

	highlightMgr *highlight.Manager
	highlights   highlighter.HighlightResult
	activeTheme  *theme.Theme
	top          int // First source line shown in the pane
	viewHeight   int

	fetched   string
	stopWatch func() bool
	quit      chan struct{}
	quitting  bool
}

// New builds the document, starts the facade and loads the source file.
// Nothing is served until Start.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("app: dispatcher is required")
	}
	redraw := opts.Redraw
	if redraw == nil {
		redraw = func() {}
	}

	fsys := assets.WithOverrides(cfg.Assets.Dir)
	themes := theme.NewRegistry(fsys)
	if err := themes.LoadThemesFromDir(cfg.Assets.ThemesDir); err != nil {
		logger.Warnf("Failed to load themes from '%s': %v", cfg.Assets.ThemesDir, err)
	}

	themeID, err := theme.ParseID(cfg.Preview.Theme)
	if err != nil {
		return nil, err
	}
	activeTheme, err := themes.Get(themeID)
	if err != nil {
		return nil, err
	}

	customCSS := ""
	if cfg.Assets.CustomCSS != "" {
		data, err := os.ReadFile(cfg.Assets.CustomCSS)
		if err != nil {
			return nil, &document.AssetLoadError{Path: cfg.Assets.CustomCSS, Err: err}
		}
		customCSS = string(data)
	}

	page, err := document.Build(document.Options{
		Theme:        themeID,
		FS:           fsys,
		CustomCSS:    customCSS,
		MarkedURL:    cfg.Assets.MarkedURL,
		HighlightURL: cfg.Assets.HighlightURL,
	})
	if err != nil {
		return nil, fmt.Errorf("app: build document: %w", err)
	}

	readySignal, err := preview.ParseReadySignal(cfg.Preview.ReadySignal)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:         cfg,
		dispatcher:  opts.Dispatcher,
		redraw:      redraw,
		themes:      themes,
		events:      event.NewManager(),
		buffer:      buffer.NewSliceBuffer(),
		statusBar:   statusbar.New(statusbar.Config{MessageTimeout: config.MessageTimeout}),
		keys:        input.NewInputProcessor(),
		activeTheme: activeTheme,
		quit:        make(chan struct{}),
		exporter: export.New(themes, export.Options{
			HardWraps: cfg.Export.HardWraps,
			Unsafe:    cfg.Export.Unsafe,
			Title:     cfg.Export.Title,
		}),
	}
	a.subscribeEvents()

	a.server = webview.New(webview.Options{
		Addr:         cfg.Preview.Addr,
		AllowOrigins: cfg.Preview.AllowOrigins,
	})
	a.server.OnConnect(func(remote string) {
		a.dispatcher.Post(func() { a.onPeerConnected(remote) })
	})

	a.preview, err = preview.New(preview.Options{
		Surface:      a.server,
		Channel:      a.server,
		Dispatcher:   a.dispatcher,
		Styles:       themes,
		Document:     page,
		Theme:        themeID,
		PollInterval: cfg.Preview.PollInterval,
		FetchDelay:   cfg.Preview.FetchDelay,
		ReadySignal:  readySignal,
		Events:       a.events,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Preview.NativeRedirection {
		a.preview.SetNativeRedirection(true)
	}

	if opts.Highlight {
		a.highlightMgr = highlight.NewManager(highlighter.NewHighlighter(), a.dispatcher, func(r highlighter.HighlightResult) {
			a.highlights = r
			a.redraw()
		})
	}

	if err := a.buffer.Load(opts.FilePath); err != nil {
		a.preview.Close()
		return nil, err
	}
	a.statusBar.SetFileInfo(opts.FilePath)
	a.pushSource()
	return a, nil
}

// Start serves the preview until ctx is done and starts watching the source.
func (a *App) Start(ctx context.Context) error {
	if err := a.server.Start(ctx); err != nil {
		return err
	}
	url := a.server.URL()
	a.statusBar.SetURL(url)
	if a.cfg.Preview.OpenBrowser {
		if err := openBrowser(url); err != nil {
			logger.Warnf("Could not open a browser: %v (open %s manually)", err, url)
		}
	}
	if a.cfg.Watch.Enabled && a.buffer.FilePath() != "" {
		a.dispatcher.Post(a.armWatch)
	}
	a.refreshStatus()
	return nil
}

// Quit asks the host loop to stop. Safe to call more than once.
func (a *App) Quit() {
	if a.quitting {
		return
	}
	a.quitting = true
	a.events.Dispatch(event.TypeAppQuit, nil)
	close(a.quit)
}

// Done is closed once Quit is called.
func (a *App) Done() <-chan struct{} {
	return a.quit
}

// Close stops watching, the facade and the server.
func (a *App) Close() {
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch = nil
	}
	if a.highlightMgr != nil {
		a.highlightMgr.Shutdown()
	}
	a.preview.Close()
	if err := a.server.Close(); err != nil {
		logger.Warnf("app: closing server: %v", err)
	}
}

// pushSource replaces the document with the buffer content.
func (a *App) pushSource() {
	src := a.buffer.Bytes()
	a.preview.WriteMarkdown(string(src))
	if a.highlightMgr != nil {
		a.highlightMgr.Update(src)
	}
	a.events.Dispatch(event.TypeSourceLoaded, event.SourceLoadedData{
		FilePath: a.buffer.FilePath(),
		Bytes:    len(src),
	})
}

// onPeerConnected re-pushes state a freshly loaded page does not have.
// Before readiness the queued operations already cover it.
func (a *App) onPeerConnected(remote string) {
	a.events.Dispatch(event.TypePeerConnected, event.PeerConnectedData{Remote: remote})
	if !a.preview.IsReady() {
		return
	}
	a.preview.WriteMarkdown(string(a.buffer.Bytes()))
	if err := a.preview.SetTheme(a.preview.Theme()); err != nil {
		logger.Warnf("app: re-applying theme: %v", err)
	}
	a.preview.SetNativeRedirection(a.preview.NativeRedirection())
}

// refreshStatus copies facade and server state into the status bar.
func (a *App) refreshStatus() {
	a.statusBar.SetRendererInfo(a.preview.IsReady(), a.server.Connected())
	a.statusBar.SetPreviewInfo(a.preview.Theme(), a.preview.NativeRedirection())
	a.redraw()
}

// Preview exposes the facade, for hosts embedding the app.
func (a *App) Preview() *preview.Preview {
	return a.preview
}

// URL returns the preview address once started.
func (a *App) URL() string {
	return a.server.URL()
}
