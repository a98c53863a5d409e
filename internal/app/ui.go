package app

import (
	"context"
	"fmt"

	"github.com/bethropolis/hubmark/internal/config"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/tui"
	"github.com/gdamore/tcell/v2"
)

// RunTUI runs the terminal host: the source pane plus status bar, with the
// tcell event queue as the dispatcher.
func RunTUI(ctx context.Context, cfg *config.Config, filePath string) error {
	tuiManager, err := tui.New(nil)
	if err != nil {
		return fmt.Errorf("TUI initialization failed: %w", err)
	}
	defer tuiManager.Close()

	var a *App
	redrawPending := false
	requestRedraw := func() {
		// Coalesce redraws into one interrupt.
		if redrawPending {
			return
		}
		redrawPending = true
		tuiManager.Post(func() {
			redrawPending = false
			if a != nil {
				a.draw(tuiManager)
			}
		})
	}

	a, err = New(Options{
		Config:     cfg,
		FilePath:   filePath,
		Dispatcher: tuiManager,
		Redraw:     requestRedraw,
		Highlight:  true,
	})
	if err != nil {
		return err
	}
	defer a.Close()
	tuiManager.SetTheme(a.activeTheme)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.Start(ctx); err != nil {
		return err
	}
	a.statusBar.SetTemporaryMessage("%s", helpText)
	requestRedraw()

	go func() {
		select {
		case <-ctx.Done():
			tuiManager.Post(a.Quit)
		case <-a.Done():
		}
	}()

	for {
		select {
		case <-a.Done():
			logger.Infof("Exiting application.")
			return nil
		default:
		}

		ev := tuiManager.PollEvent()
		if ev == nil {
			return nil // Screen finalized
		}
		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			tui.RunInterrupt(ev)
		case *tcell.EventResize:
			tuiManager.Sync()
			a.clampScroll()
			requestRedraw()
		case *tcell.EventKey:
			if a.handleKey(ev) {
				requestRedraw()
			}
		}
	}
}

// handleKey maps a key event to an action.
func (a *App) handleKey(ev *tcell.EventKey) bool {
	return a.runAction(a.keys.ProcessEvent(ev))
}

// draw clears screen and redraws all components.
func (a *App) draw(tuiManager *tui.TUI) {
	screen := tuiManager.GetScreen()
	width, height := tuiManager.Size()
	a.viewHeight = height - config.StatusBarHeight

	tuiManager.SetTheme(a.activeTheme)
	tuiManager.Clear()
	tui.DrawSource(tuiManager, tui.SourceView{
		Lines:      a.buffer.Lines(),
		Highlights: a.highlights,
		Top:        a.top,
		Height:     a.viewHeight,
	}, a.activeTheme)
	a.statusBar.Draw(screen, width, height, a.activeTheme)
	tuiManager.Show()
}

// scroll moves the source pane by delta lines.
func (a *App) scroll(delta int) {
	a.top += delta
	a.clampScroll()
}

// clampScroll keeps the pane within the source.
func (a *App) clampScroll() {
	maxTop := a.buffer.LineCount() - a.viewHeight
	if a.top > maxTop {
		a.top = maxTop
	}
	if a.top < 0 {
		a.top = 0
	}
}
