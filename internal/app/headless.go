package app

import (
	"context"
	"errors"

	"github.com/bethropolis/hubmark/internal/config"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/loop"
)

// RunHeadless serves the preview without a terminal UI until ctx is done.
func RunHeadless(ctx context.Context, cfg *config.Config, filePath string) error {
	l := loop.New()
	a, err := New(Options{
		Config:     cfg,
		FilePath:   filePath,
		Dispatcher: l,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.Start(ctx); err != nil {
		return err
	}
	logger.Infof("Previewing '%s' at %s (interrupt to stop)", filePath, a.URL())

	go func() {
		<-a.Done()
		cancel()
	}()

	err = l.Run(ctx)
	a.Quit() // The loop has stopped, so this runs alone
	if errors.Is(err, context.Canceled) || errors.Is(err, loop.ErrClosed) {
		return nil
	}
	return err
}
