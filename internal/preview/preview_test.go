package preview

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/bethropolis/hubmark/internal/event"
	"github.com/bethropolis/hubmark/internal/loop"
	"github.com/bethropolis/hubmark/internal/script"
	"github.com/bethropolis/hubmark/internal/theme"
)

var (
	fnInsert   = script.FnInsertMarkdown
	fnWrite    = script.FnWriteMarkdown
	fnClear    = script.FnClearMarkdown
	fnRedirect = script.FnSetNativeRedirection
	fnTheme    = script.FnInjectThemeStyle
)

func testRegistry() *theme.Registry {
	return theme.NewRegistry(fstest.MapFS{
		"css/hubmark.dark.css":    {Data: []byte("body{background:#0d1117}")},
		"css/highlight.dark.css":  {Data: []byte(".hljs{}")},
		"css/hubmark.light.css":   {Data: []byte("body{background:#fff}")},
		"css/highlight.light.css": {Data: []byte(".hljs{}")},
	})
}

type harness struct {
	p    *Preview
	doc  *fakeDoc
	loop *loop.Manual
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()
	doc := newFakeDoc()
	m := loop.NewManual()
	opts := Options{
		Surface:    doc,
		Channel:    doc,
		Dispatcher: m,
		Styles:     testRegistry(),
		Document:   "<html></html>",
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	p, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	return &harness{p: p, doc: doc, loop: m}
}

// makeReady flips the document's flag and lets the next probe see it.
func (h *harness) makeReady(t *testing.T) {
	t.Helper()
	h.doc.setReady()
	h.loop.Advance(DefaultPollInterval)
	if !h.p.IsReady() {
		t.Fatal("preview not ready after a successful probe")
	}
}

func TestNewLoadsDocument(t *testing.T) {
	h := newHarness(t)
	if h.doc.loaded != "<html></html>" {
		t.Errorf("document not loaded: %q", h.doc.loaded)
	}
	if h.p.IsReady() {
		t.Error("preview ready before any probe")
	}
	if h.p.Theme() != theme.Default {
		t.Errorf("initial theme = %q", h.p.Theme())
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New accepted empty options")
	}
}

func TestInsertsBeforeReadyDrainInCallOrder(t *testing.T) {
	h := newHarness(t)
	for _, s := range []string{"one ", "two ", "three"} {
		h.p.InsertMarkdown(s)
	}
	if _, executed, _ := h.doc.snapshot(); len(executed) != 0 {
		t.Fatalf("scripts reached the document before readiness: %v", executed)
	}

	h.makeReady(t)

	content, executed, _ := h.doc.snapshot()
	if content != "one two three" {
		t.Errorf("content = %q", content)
	}
	if want := []string{fnInsert, fnInsert, fnInsert}; !reflect.DeepEqual(fnNames(executed), want) {
		t.Errorf("drain = %v, want %v", fnNames(executed), want)
	}
}

func TestWriteBeforeReadyClearsThenInserts(t *testing.T) {
	h := newHarness(t)
	h.p.InsertMarkdown("dropped")
	h.p.WriteMarkdown("# Hi")
	h.p.InsertMarkdown("\nmore")

	h.makeReady(t)

	content, executed, _ := h.doc.snapshot()
	if content != "# Hi\nmore" {
		t.Errorf("content = %q, want %q", content, "# Hi\nmore")
	}
	if want := []string{fnClear, fnInsert, fnInsert}; !reflect.DeepEqual(fnNames(executed), want) {
		t.Errorf("drain = %v, want %v", fnNames(executed), want)
	}
	if h.doc.clears != 1 {
		t.Errorf("clears = %d, want 1", h.doc.clears)
	}
}

func TestLastWriteWinsBeforeReady(t *testing.T) {
	h := newHarness(t)
	if err := h.p.SetTheme(theme.Light); err != nil {
		t.Fatal(err)
	}
	if err := h.p.SetTheme(theme.Dark); err != nil {
		t.Fatal(err)
	}
	h.p.SetNativeRedirection(true)
	h.p.SetNativeRedirection(false)

	h.makeReady(t)

	_, executed, styles := h.doc.snapshot()
	if !reflect.DeepEqual(styles, []string{"dark"}) {
		t.Errorf("injected themes = %v, want only [dark]", styles)
	}
	if want := []string{fnTheme, fnRedirect}; !reflect.DeepEqual(fnNames(executed), want) {
		t.Errorf("drain = %v, want %v", fnNames(executed), want)
	}
	if h.doc.redirect {
		t.Error("redirection should be false")
	}
}

func TestDrainOrder(t *testing.T) {
	h := newHarness(t)
	h.p.InsertMarkdown("x")
	h.p.SetNativeRedirection(true)
	h.p.Clear()
	h.p.InsertMarkdown("y")
	if err := h.p.SetTheme(theme.Light); err != nil {
		t.Fatal(err)
	}
	h.p.InsertMarkdown("z")

	h.makeReady(t)

	content, executed, _ := h.doc.snapshot()
	want := []string{fnTheme, fnClear, fnRedirect, fnInsert, fnInsert}
	if !reflect.DeepEqual(fnNames(executed), want) {
		t.Errorf("drain = %v, want %v", fnNames(executed), want)
	}
	if content != "yz" {
		t.Errorf("content = %q, clear should have dropped the earlier insert", content)
	}
	if !h.doc.redirect || !h.p.NativeRedirection() {
		t.Error("redirection not applied")
	}
}

func TestDrainHappensOnce(t *testing.T) {
	h := newHarness(t)
	h.p.InsertMarkdown("a")
	h.makeReady(t)
	h.p.becomeReady("again")
	h.doc.signalReady()
	h.loop.RunPending()

	if content, _, _ := h.doc.snapshot(); content != "a" {
		t.Errorf("content = %q, pending operations replayed twice", content)
	}
}

func TestOperationsAfterReadyGoLive(t *testing.T) {
	h := newHarness(t)
	h.makeReady(t)

	h.p.InsertMarkdown("a")
	h.p.WriteMarkdown("b")
	h.p.InsertMarkdown("c")
	h.p.SetNativeRedirection(true)

	content, executed, _ := h.doc.snapshot()
	if content != "bc" {
		t.Errorf("content = %q", content)
	}
	want := []string{fnInsert, fnWrite, fnInsert, fnRedirect}
	if !reflect.DeepEqual(fnNames(executed), want) {
		t.Errorf("scripts = %v, want %v", fnNames(executed), want)
	}

	h.p.Clear()
	if content, _, _ := h.doc.snapshot(); content != "" {
		t.Errorf("content after clear = %q", content)
	}
}

func TestThemeInjectedBeforeLaterInsert(t *testing.T) {
	h := newHarness(t)
	h.makeReady(t)

	if err := h.p.SetTheme(theme.Dark); err != nil {
		t.Fatal(err)
	}
	h.p.InsertMarkdown("`code`")

	_, executed, _ := h.doc.snapshot()
	if want := []string{fnTheme, fnInsert}; !reflect.DeepEqual(fnNames(executed), want) {
		t.Errorf("scripts = %v, want %v", fnNames(executed), want)
	}
	if !strings.Contains(executed[0], "background:#0d1117") {
		t.Errorf("theme payload missing from %q", executed[0])
	}
}

func TestSetThemeUnknown(t *testing.T) {
	h := newHarness(t)

	var nf *theme.NotFoundError
	if err := h.p.SetTheme("nonexistent-theme"); !errors.As(err, &nf) {
		t.Fatalf("before ready: err = %v, want NotFoundError", err)
	}
	h.makeReady(t)
	if err := h.p.SetTheme("nonexistent-theme"); !errors.As(err, &nf) {
		t.Fatalf("after ready: err = %v, want NotFoundError", err)
	}

	if _, executed, styles := h.doc.snapshot(); len(styles) != 0 || len(executed) != 0 {
		t.Errorf("unknown theme injected something: %v", executed)
	}
	if h.p.Theme() != theme.Default {
		t.Errorf("theme changed to %q", h.p.Theme())
	}
}

func TestSetThemeAfterCloseNotPublished(t *testing.T) {
	events := event.NewManager()
	var got []event.ThemeChangedData
	events.Subscribe(event.TypeThemeChanged, func(e event.Event) bool {
		got = append(got, e.Data.(event.ThemeChangedData))
		return false
	})
	h := newHarness(t, func(o *Options) { o.Events = events })

	if err := h.p.SetTheme(theme.Light); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Queued || got[0].Theme != theme.Light {
		t.Fatalf("theme events = %+v", got)
	}

	h.p.Close()
	if err := h.p.SetTheme(theme.Dark); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("dropped theme change was published: %+v", got)
	}
	if h.p.Theme() != theme.Light {
		t.Errorf("theme = %q after close", h.p.Theme())
	}
}

func TestMarkdownTextNeverBlocks(t *testing.T) {
	h := newHarness(t)
	if got := h.p.MarkdownText(); got != "" {
		t.Errorf("before ready = %q", got)
	}
	h.p.WriteMarkdown("hello")
	h.makeReady(t)
	if got := h.p.MarkdownText(); got != "" {
		t.Errorf("nothing pushed yet, got %q", got)
	}
	h.doc.push("")
	if got := h.p.MarkdownText(); got != "hello" {
		t.Errorf("after push = %q", got)
	}
}

func TestMarkdownTextAsyncBeforeReady(t *testing.T) {
	h := newHarness(t)
	var calls []string
	h.p.MarkdownTextAsync(func(s string) { calls = append(calls, s) })
	if len(calls) != 1 || calls[0] != "" {
		t.Fatalf("calls = %q, want exactly one empty string", calls)
	}
	h.loop.Advance(time.Second)
	if len(calls) != 1 {
		t.Errorf("callback ran %d times", len(calls))
	}
	if len(h.doc.invoked) != 0 {
		t.Errorf("document asked for text before ready")
	}
}

func TestMarkdownTextAsyncFallsBackToDelay(t *testing.T) {
	h := newHarness(t)
	h.p.WriteMarkdown("cached")
	h.makeReady(t)
	h.doc.push("")

	var calls []string
	h.p.MarkdownTextAsync(func(s string) { calls = append(calls, s) })
	if len(h.doc.invoked) != 1 {
		t.Fatalf("document not asked for text")
	}

	h.loop.Advance(DefaultFetchDelay - time.Millisecond)
	if len(calls) != 0 {
		t.Fatalf("callback ran before the delay: %q", calls)
	}
	h.loop.Advance(time.Millisecond)
	if len(calls) != 1 || calls[0] != "cached" {
		t.Fatalf("calls = %q", calls)
	}

	// A late answer updates the cache but never reaches the finished callback.
	h.p.WriteMarkdown("fresh")
	h.doc.answer()
	h.loop.Advance(time.Second)
	if len(calls) != 1 {
		t.Errorf("callback ran %d times", len(calls))
	}
	if h.p.MarkdownText() != "fresh" {
		t.Errorf("cache = %q", h.p.MarkdownText())
	}
}

func TestMarkdownTextAsyncAck(t *testing.T) {
	h := newHarness(t)
	h.p.WriteMarkdown("live text")
	h.makeReady(t)

	var calls []string
	h.p.MarkdownTextAsync(func(s string) { calls = append(calls, s) })
	h.doc.answer()
	h.loop.RunPending()

	if len(calls) != 1 || calls[0] != "live text" {
		t.Fatalf("calls = %q, want [live text] on ack", calls)
	}
	if h.loop.PendingTimers() != 0 {
		t.Errorf("fetch timer still armed after ack")
	}
	h.loop.Advance(time.Second)
	if len(calls) != 1 {
		t.Errorf("callback ran %d times", len(calls))
	}
}

func TestMarkdownTextAsyncRequestFailure(t *testing.T) {
	h := newHarness(t)
	h.makeReady(t)
	h.doc.invokeError = errors.New("no page")

	calls := 0
	h.p.MarkdownTextAsync(func(string) { calls++ })
	h.loop.Advance(DefaultFetchDelay)
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}
}

func TestMarkdownTextAsyncEvent(t *testing.T) {
	events := event.NewManager()
	var got []event.MarkdownFetchedData
	events.Subscribe(event.TypeMarkdownFetched, func(e event.Event) bool {
		got = append(got, e.Data.(event.MarkdownFetchedData))
		return false
	})
	h := newHarness(t, func(o *Options) { o.Events = events })
	h.makeReady(t)
	h.doc.answerNow = true

	h.p.MarkdownTextAsync(func(string) {})
	h.loop.RunPending()
	if len(got) != 1 || !got[0].Acked {
		t.Errorf("fetched events = %+v", got)
	}
}

func TestPollerRetriesUntilReady(t *testing.T) {
	h := newHarness(t)
	h.loop.Advance(3 * DefaultPollInterval)
	if h.doc.probes != 3 {
		t.Fatalf("probes = %d, want 3", h.doc.probes)
	}

	h.doc.probeErr = errors.New("document navigating")
	h.loop.Advance(2 * DefaultPollInterval)
	if h.p.IsReady() || h.doc.probes != 5 {
		t.Fatalf("failed probes should retry, probes = %d", h.doc.probes)
	}

	h.doc.probeErr = nil
	h.makeReady(t)
	if h.loop.PendingTimers() != 0 {
		t.Errorf("poller still armed after ready")
	}
	probes := h.doc.probes
	h.loop.Advance(time.Second)
	if h.doc.probes != probes {
		t.Errorf("poller kept probing after ready")
	}
}

func TestPollInterval(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.PollInterval = 100 * time.Millisecond })
	h.loop.Advance(99 * time.Millisecond)
	if h.doc.probes != 0 {
		t.Errorf("probed before the interval")
	}
	h.loop.Advance(time.Millisecond)
	if h.doc.probes != 1 {
		t.Errorf("probes = %d", h.doc.probes)
	}
}

func TestPushReadiness(t *testing.T) {
	events := event.NewManager()
	drained := -1
	events.Subscribe(event.TypeRendererReady, func(e event.Event) bool {
		drained = e.Data.(event.RendererReadyData).Drained
		return false
	})
	h := newHarness(t, func(o *Options) {
		o.ReadySignal = ReadyPush
		o.Events = events
	})
	h.p.WriteMarkdown("pushed")

	h.loop.Advance(time.Second)
	if h.doc.probes != 0 {
		t.Fatalf("push mode probed %d times", h.doc.probes)
	}
	if h.p.IsReady() {
		t.Fatal("ready without a signal")
	}

	h.doc.signalReady()
	h.loop.RunPending()
	if !h.p.IsReady() {
		t.Fatal("pushed signal ignored")
	}
	if content, _, _ := h.doc.snapshot(); content != "pushed" {
		t.Errorf("content = %q", content)
	}
	if drained != 2 {
		t.Errorf("drained = %d, want 2 (clear + insert)", drained)
	}
}

func TestPushSignalIgnoredWhenPolling(t *testing.T) {
	h := newHarness(t)
	h.doc.signalReady()
	h.loop.RunPending()
	if h.p.IsReady() {
		t.Error("poll mode became ready from a pushed signal")
	}
	h.loop.Advance(DefaultPollInterval)
	if !h.p.IsReady() {
		t.Error("probe after the signal should see the flag")
	}
}

func TestCloseStopsPolling(t *testing.T) {
	h := newHarness(t)
	h.p.InsertMarkdown("never")
	h.p.Close()
	h.doc.setReady()
	h.loop.Advance(time.Second)
	if h.doc.probes != 0 || h.p.IsReady() {
		t.Errorf("closed preview kept polling: probes = %d", h.doc.probes)
	}
	h.p.InsertMarkdown("dropped")
	if _, executed, _ := h.doc.snapshot(); len(executed) != 0 {
		t.Errorf("closed preview executed %v", executed)
	}
}

func TestConcurrentInsertsAcrossReadiness(t *testing.T) {
	h := newHarness(t)
	const writers, each = 4, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				h.p.InsertMarkdown(fmt.Sprintf("[%d:%d]", w, i))
			}
		}(w)
	}
	h.doc.setReady()
	h.loop.Advance(DefaultPollInterval)
	wg.Wait()

	content, _, _ := h.doc.snapshot()
	for w := 0; w < writers; w++ {
		last := -1
		for i := 0; i < each; i++ {
			tok := fmt.Sprintf("[%d:%d]", w, i)
			if strings.Count(content, tok) != 1 {
				t.Fatalf("%s appears %d times", tok, strings.Count(content, tok))
			}
			pos := strings.Index(content, tok)
			if pos < last {
				t.Fatalf("%s out of order", tok)
			}
			last = pos
		}
	}
}

func TestParseReadySignal(t *testing.T) {
	for _, ok := range []string{"poll", "push"} {
		if _, err := ParseReadySignal(ok); err != nil {
			t.Errorf("%s rejected: %v", ok, err)
		}
	}
	if _, err := ParseReadySignal("sometimes"); err == nil {
		t.Error("invalid signal accepted")
	}
}
