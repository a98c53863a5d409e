package app

import "github.com/bethropolis/hubmark/internal/logger"

// armWatch schedules the next modification check on the dispatcher.
func (a *App) armWatch() {
	if a.quitting {
		return
	}
	a.stopWatch = a.dispatcher.AfterFunc(a.cfg.Watch.Interval, a.watchTick)
}

// watchTick reloads the source when its mtime or size changed.
func (a *App) watchTick() {
	changed, err := a.buffer.Reload()
	if err != nil {
		logger.Warnf("Watch: %v", err)
	} else if changed {
		logger.InfoTagf("watch", "'%s' changed, pushing to preview", a.buffer.FilePath())
		a.clampScroll()
		a.pushSource()
	}
	a.armWatch()
}
