// Package preview keeps a Markdown document hosted on a renderer surface in
// sync with the host. Operations issued before the document is ready are
// buffered and replayed, in a fixed order, the moment it becomes ready.
package preview

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bethropolis/hubmark/internal/bridge"
	"github.com/bethropolis/hubmark/internal/event"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/loop"
	"github.com/bethropolis/hubmark/internal/script"
	"github.com/bethropolis/hubmark/internal/surface"
	"github.com/bethropolis/hubmark/internal/theme"
	"github.com/google/uuid"
)

const (
	DefaultPollInterval = 16 * time.Millisecond
	DefaultFetchDelay   = 50 * time.Millisecond
)

// ReadySignal selects how readiness is detected.
type ReadySignal string

const (
	// ReadyPoll probes the document's ready flag on a fixed cadence.
	ReadyPoll ReadySignal = "poll"
	// ReadyPush waits for the document to call markdownBridge.rendererReady().
	ReadyPush ReadySignal = "push"
)

// ParseReadySignal validates a ready_signal setting.
func ParseReadySignal(s string) (ReadySignal, error) {
	switch ReadySignal(s) {
	case ReadyPoll, ReadyPush:
		return ReadySignal(s), nil
	}
	return "", fmt.Errorf("invalid ready signal %q (want %q or %q)", s, ReadyPoll, ReadyPush)
}

// StyleLoader resolves a theme to the stylesheet injected into the document.
type StyleLoader interface {
	LoadThemeStyle(id theme.ID) (string, error)
}

// Options configures a Preview.
type Options struct {
	Surface    surface.Surface
	Channel    bridge.Channel
	Dispatcher loop.Dispatcher
	Styles     StyleLoader

	// Document is the complete page loaded into the surface.
	Document string
	// Theme is the theme the document was built with.
	Theme theme.ID

	PollInterval time.Duration
	FetchDelay   time.Duration
	ReadySignal  ReadySignal

	// Events receives lifecycle notifications on the dispatcher. Optional.
	Events *event.Manager
}

// Preview is the sync facade. All methods are safe for concurrent use and
// none of them wait for the document.
type Preview struct {
	surface     surface.Surface
	dispatcher  loop.Dispatcher
	styles      StyleLoader
	events      *event.Manager
	markdown    *bridge.Markdown
	readySignal ReadySignal

	pollInterval time.Duration
	fetchDelay   time.Duration

	mu       sync.Mutex
	state    rendererState
	theme    theme.ID
	redirect bool
	stopPoll func() bool
	probes   int
	closed   bool
}

// New loads the document into the surface and starts waiting for readiness.
func New(opts Options) (*Preview, error) {
	if opts.Surface == nil || opts.Channel == nil || opts.Dispatcher == nil || opts.Styles == nil {
		return nil, errors.New("preview: surface, channel, dispatcher and styles are required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.FetchDelay <= 0 {
		opts.FetchDelay = DefaultFetchDelay
	}
	if opts.ReadySignal == "" {
		opts.ReadySignal = ReadyPoll
	}
	if opts.Theme == "" {
		opts.Theme = theme.Default
	}

	p := &Preview{
		surface:      opts.Surface,
		dispatcher:   opts.Dispatcher,
		styles:       opts.Styles,
		events:       opts.Events,
		readySignal:  opts.ReadySignal,
		pollInterval: opts.PollInterval,
		fetchDelay:   opts.FetchDelay,
		state:        &initializing{},
		theme:        opts.Theme,
	}
	p.markdown = bridge.NewMarkdown(opts.Channel)
	p.markdown.OnReady(p.onRendererReady)

	if err := p.surface.Load(opts.Document); err != nil {
		return nil, fmt.Errorf("preview: load document: %w", err)
	}

	if p.readySignal == ReadyPoll {
		p.startPolling()
	}
	logger.Debugf("preview: created (ready signal %s, poll %v, fetch delay %v)", p.readySignal, p.pollInterval, p.fetchDelay)
	return p, nil
}

// becomeReady performs the one forward transition and drains the buffered
// operations inside the same critical section, so nothing issued afterwards
// can reach the document before them.
func (p *Preview) becomeReady(via string) {
	p.mu.Lock()
	st, ok := p.state.(*initializing)
	if !ok || p.closed {
		p.mu.Unlock()
		return
	}
	p.state = ready{}
	if p.stopPoll != nil {
		p.stopPoll()
		p.stopPoll = nil
	}
	scripts := st.pending.scripts()
	for _, s := range scripts {
		p.execLocked(s)
	}
	probes := p.probes
	p.mu.Unlock()

	logger.Infof("preview: renderer ready via %s after %d probe(s), drained %d operation(s)", via, probes, len(scripts))
	p.publish(event.TypeRendererReady, event.RendererReadyData{Drained: len(scripts)})
}

// execLocked hands a script to the surface. Failures are only logged.
func (p *Preview) execLocked(s string) {
	p.surface.Execute(s, func(_ any, err error) {
		if err != nil {
			logger.Warnf("preview: %v", err)
		}
	})
}

// withState runs buffered when not ready and live with the lock held otherwise.
// It reports false when the operation was dropped.
func (p *Preview) withState(buffered func(*pendingSet), live func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		logger.DebugTagf("preview", "operation after close dropped")
		return false
	}
	switch st := p.state.(type) {
	case *initializing:
		buffered(&st.pending)
	case ready:
		live()
	default:
		return false
	}
	return true
}

// InsertMarkdown appends text to the document.
func (p *Preview) InsertMarkdown(text string) {
	p.withState(
		func(s *pendingSet) { s.insert(text) },
		func() { p.execLocked(script.Call(script.FnInsertMarkdown, text)) },
	)
}

// WriteMarkdown replaces the document's content with text.
func (p *Preview) WriteMarkdown(text string) {
	p.withState(
		func(s *pendingSet) { s.write(text) },
		func() { p.execLocked(script.Call(script.FnWriteMarkdown, text)) },
	)
}

// Clear empties the document.
func (p *Preview) Clear() {
	p.withState(
		func(s *pendingSet) { s.clearAll() },
		func() { p.execLocked(script.Call(script.FnClearMarkdown)) },
	)
}

// SetNativeRedirection controls whether link clicks navigate the renderer.
func (p *Preview) SetNativeRedirection(on bool) {
	p.withState(
		func(s *pendingSet) { s.setRedirect(on); p.redirect = on },
		func() {
			p.execLocked(script.Call(script.FnSetNativeRedirection, on))
			p.redirect = on
		},
	)
}

// SetTheme injects the theme's stylesheet. An unresolvable theme is reported
// here, even before readiness, and nothing is injected or queued.
func (p *Preview) SetTheme(id theme.ID) error {
	css, err := p.styles.LoadThemeStyle(id)
	if err != nil {
		return err
	}

	queued := false
	applied := p.withState(
		func(s *pendingSet) {
			s.setTheme(id, css)
			p.theme = id
			queued = true
		},
		func() {
			p.execLocked(script.Call(script.FnInjectThemeStyle, string(id), css))
			p.theme = id
		},
	)
	if applied {
		p.publish(event.TypeThemeChanged, event.ThemeChangedData{Theme: id, Queued: queued})
	}
	return nil
}

// MarkdownText returns the text last pushed by the document. It is empty
// until the document is ready.
func (p *Preview) MarkdownText() string {
	if !p.IsReady() {
		return ""
	}
	return p.markdown.Text()
}

// MarkdownTextAsync asks the document for its text and calls cb exactly once.
// Before readiness cb gets "" immediately. Otherwise cb runs on the dispatcher
// when the document answers the request, or with the cached text once the
// fetch delay elapses, whichever comes first. A document answering after the
// delay is a stale read for this call.
func (p *Preview) MarkdownTextAsync(cb func(text string)) {
	if !p.IsReady() {
		cb("")
		return
	}

	f := &fetch{id: uuid.NewString()}
	f.deliver = func(text string, acked bool) {
		if !f.finish() {
			return
		}
		p.markdown.CancelRequest(f.id)
		cb(text)
		p.publish(event.TypeMarkdownFetched, event.MarkdownFetchedData{Text: text, Acked: acked})
	}

	f.setStop(p.dispatcher.AfterFunc(p.fetchDelay, func() {
		f.deliver(p.markdown.Text(), false)
	}))
	err := p.markdown.RequestMarkdownText(f.id, func(text string) {
		p.dispatcher.Post(func() { f.deliver(text, true) })
	})
	if err != nil {
		logger.DebugTagf("preview", "text request %s: %v", f.id, err)
	}
}

// fetch tracks one async text request.
type fetch struct {
	id      string
	deliver func(text string, acked bool)

	mu   sync.Mutex
	done bool
	stop func() bool
}

func (f *fetch) setStop(stop func() bool) {
	f.mu.Lock()
	f.stop = stop
	f.mu.Unlock()
}

// finish reports whether this is the first delivery and disarms the timer.
func (f *fetch) finish() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return false
	}
	f.done = true
	if f.stop != nil {
		f.stop()
	}
	return true
}

// IsReady reports whether the document has become ready.
func (p *Preview) IsReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.state.(ready)
	return ok
}

// Theme returns the last theme applied or queued.
func (p *Preview) Theme() theme.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

// NativeRedirection returns the last redirection setting applied or queued.
func (p *Preview) NativeRedirection() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.redirect
}

// Close stops polling. Later operations are dropped.
func (p *Preview) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.stopPoll != nil {
		p.stopPoll()
		p.stopPoll = nil
	}
	if st, ok := p.state.(*initializing); ok && !st.pending.empty() {
		logger.Warnf("preview: closed before ready, %d buffered operation(s) discarded", len(st.pending.scripts()))
	}
}

func (p *Preview) publish(t event.Type, data interface{}) {
	if p.events == nil {
		return
	}
	p.dispatcher.Post(func() { p.events.Dispatch(t, data) })
}
