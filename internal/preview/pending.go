package preview

import (
	"github.com/bethropolis/hubmark/internal/script"
	"github.com/bethropolis/hubmark/internal/theme"
)

// rendererState is either *initializing or ready. It only moves forward.
type rendererState interface {
	isRendererState()
}

// initializing buffers operations until the document reports ready.
type initializing struct {
	pending pendingSet
}

type ready struct{}

func (*initializing) isRendererState() {}
func (ready) isRendererState()         {}

type queuedTheme struct {
	id  theme.ID
	css string
}

// pendingSet holds the operations issued before readiness. Inserts keep call
// order; clear, redirect and theme collapse to their last value.
type pendingSet struct {
	inserts  []string
	clear    bool
	redirect *bool
	theme    *queuedTheme
}

func (s *pendingSet) insert(text string) {
	s.inserts = append(s.inserts, text)
}

// write replaces everything buffered so far: the document is cleared first,
// then receives text.
func (s *pendingSet) write(text string) {
	s.clear = true
	s.inserts = []string{text}
}

func (s *pendingSet) clearAll() {
	s.clear = true
	s.inserts = nil
}

func (s *pendingSet) setRedirect(on bool) {
	s.redirect = &on
}

func (s *pendingSet) setTheme(id theme.ID, css string) {
	s.theme = &queuedTheme{id: id, css: css}
}

// scripts renders the drain sequence: theme, clear, redirect, then inserts.
func (s *pendingSet) scripts() []string {
	out := make([]string, 0, len(s.inserts)+3)
	if s.theme != nil {
		out = append(out, script.Call(script.FnInjectThemeStyle, string(s.theme.id), s.theme.css))
	}
	if s.clear {
		out = append(out, script.Call(script.FnClearMarkdown))
	}
	if s.redirect != nil {
		out = append(out, script.Call(script.FnSetNativeRedirection, *s.redirect))
	}
	for _, text := range s.inserts {
		out = append(out, script.Call(script.FnInsertMarkdown, text))
	}
	return out
}

func (s *pendingSet) empty() bool {
	return len(s.inserts) == 0 && !s.clear && s.redirect == nil && s.theme == nil
}
