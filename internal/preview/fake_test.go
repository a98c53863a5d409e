package preview

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/bethropolis/hubmark/internal/bridge"
	"github.com/bethropolis/hubmark/internal/script"
	"github.com/bethropolis/hubmark/internal/surface"
)

// fakeDoc plays the hosted document: it runs the renderer calls the facade
// emits against a tiny in-memory model and answers bridge requests.
type fakeDoc struct {
	mu sync.Mutex

	loaded   string
	ready    bool
	probes   int
	probeErr error

	executed []string // non-probe scripts, in arrival order
	content  string
	clears   int
	redirect bool
	styles   []string // injected theme ids

	handler     bridge.Handler
	invoked     []string
	answerNow   bool
	unanswered  []string // request ids not answered yet
	invokeError error
}

func newFakeDoc() *fakeDoc {
	return &fakeDoc{}
}

func (d *fakeDoc) Load(doc string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = doc
	return nil
}

func (d *fakeDoc) Execute(s string, onResult surface.ResultFunc) {
	d.mu.Lock()
	if s == script.ReadyProbe {
		d.probes++
		ready, err := d.ready, d.probeErr
		d.mu.Unlock()
		if onResult != nil {
			if err != nil {
				onResult(nil, err)
			} else {
				onResult(ready, nil)
			}
		}
		return
	}
	d.executed = append(d.executed, s)
	err := d.apply(s)
	d.mu.Unlock()
	if onResult != nil {
		onResult(nil, err)
	}
}

// apply interprets `fn(args...);` as the document runtime would.
func (d *fakeDoc) apply(s string) error {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ");") {
		return &surface.ScriptError{Script: s, Reason: "syntax error"}
	}
	fn := s[:open]
	var args []json.RawMessage
	if err := json.Unmarshal([]byte("["+s[open+1:len(s)-2]+"]"), &args); err != nil {
		return &surface.ScriptError{Script: s, Reason: err.Error()}
	}
	str := func(i int) string {
		var v string
		if i < len(args) {
			_ = json.Unmarshal(args[i], &v)
		}
		return v
	}

	switch fn {
	case script.FnInsertMarkdown:
		d.content += str(0)
	case script.FnWriteMarkdown:
		d.content = str(0)
	case script.FnClearMarkdown:
		d.content = ""
		d.clears++
	case script.FnSetNativeRedirection:
		_ = json.Unmarshal(args[0], &d.redirect)
	case script.FnInjectThemeStyle:
		d.styles = append(d.styles, str(0))
	default:
		return &surface.ScriptError{Script: s, Reason: fmt.Sprintf("%s is not a function", fn)}
	}
	return nil
}

func (d *fakeDoc) Register(object string, h bridge.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if object == bridge.ObjectName {
		d.handler = h
	}
}

func (d *fakeDoc) Invoke(method string, args ...any) error {
	d.mu.Lock()
	if d.invokeError != nil {
		err := d.invokeError
		d.mu.Unlock()
		return err
	}
	d.invoked = append(d.invoked, method)
	id, _ := args[0].(string)
	if !d.answerNow {
		d.unanswered = append(d.unanswered, id)
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()
	d.push(id)
	return nil
}

// answer replies to every outstanding text request.
func (d *fakeDoc) answer() {
	d.mu.Lock()
	ids := d.unanswered
	d.unanswered = nil
	d.mu.Unlock()
	for _, id := range ids {
		d.push(id)
	}
}

// push calls markdownBridge.setMarkdownText(content, id) on the host.
func (d *fakeDoc) push(id string) {
	d.mu.Lock()
	text, h := d.content, d.handler
	d.mu.Unlock()
	a, _ := json.Marshal(text)
	b, _ := json.Marshal(id)
	_ = h.Call(bridge.MethodSetMarkdownText, []json.RawMessage{a, b})
}

// signalReady calls markdownBridge.rendererReady() on the host.
func (d *fakeDoc) signalReady() {
	d.mu.Lock()
	d.ready = true
	h := d.handler
	d.mu.Unlock()
	_ = h.Call(bridge.MethodRendererReady, nil)
}

func (d *fakeDoc) setReady() {
	d.mu.Lock()
	d.ready = true
	d.mu.Unlock()
}

func (d *fakeDoc) snapshot() (content string, executed []string, styles []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content, append([]string(nil), d.executed...), append([]string(nil), d.styles...)
}

// fnName returns the called function of a renderer script.
func fnName(s string) string {
	if i := strings.IndexByte(s, '('); i >= 0 {
		return s[:i]
	}
	return s
}

func fnNames(scripts []string) []string {
	out := make([]string, len(scripts))
	for i, s := range scripts {
		out[i] = fnName(s)
	}
	return out
}
