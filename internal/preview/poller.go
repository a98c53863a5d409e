package preview

import (
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/script"
	"github.com/bethropolis/hubmark/internal/surface"
)

// startPolling arms the first readiness probe. Each tick probes the document
// and re-arms until a probe reports true.
func (p *Preview) startPolling() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armPollLocked()
}

func (p *Preview) armPollLocked() {
	if p.closed {
		return
	}
	if _, ok := p.state.(*initializing); !ok {
		return
	}
	p.stopPoll = p.dispatcher.AfterFunc(p.pollInterval, p.pollTick)
}

// pollTick runs on the dispatcher. Probes overlap when the document is slow to
// answer; the probe is read-only and late answers after readiness are ignored.
func (p *Preview) pollTick() {
	p.mu.Lock()
	if _, ok := p.state.(*initializing); !ok || p.closed {
		p.mu.Unlock()
		return
	}
	p.probes++
	p.armPollLocked()
	p.mu.Unlock()

	p.surface.Execute(script.ReadyProbe, func(value any, err error) {
		p.dispatcher.Post(func() { p.handleProbe(value, err) })
	})
}

func (p *Preview) handleProbe(value any, err error) {
	if err != nil {
		logger.DebugTagf("poller", "readiness probe failed: %v", err)
		return
	}
	if !surface.IsTrue(value) {
		return
	}
	p.becomeReady("poll")
}

// onRendererReady handles the document's push notification.
func (p *Preview) onRendererReady() {
	if p.readySignal != ReadyPush {
		logger.DebugTagf("poller", "ignoring pushed ready signal in %s mode", p.readySignal)
		return
	}
	p.dispatcher.Post(func() { p.becomeReady("push") })
}
