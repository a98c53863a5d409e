package script

import (
	"strings"

	"github.com/bethropolis/hubmark/internal/logger"
)

// Functions exposed by the in-document renderer.
const (
	FnInsertMarkdown       = "window.insertMarkdown"
	FnWriteMarkdown        = "window.writeMarkdown"
	FnClearMarkdown        = "window.clearMarkdown"
	FnSetNativeRedirection = "window.setNativeRedirection"
	FnInjectThemeStyle     = "window.injectThemeStyle"
	FnGetMarkdownText      = "window.getMarkdownText"
)

// ReadyProbe evaluates the renderer's readiness flag without side effects.
const ReadyProbe = "window.markdownRendererReady === true"

// Call builds `fn(arg, ...);` with every argument encoded by Literal.
// Arguments that cannot be encoded are sent as null and logged.
func Call(fn string, args ...any) string {
	var b strings.Builder
	b.WriteString(fn)
	b.WriteByte('(')
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		lit, err := Literal(arg)
		if err != nil {
			logger.Warnf("script: %s argument %d: %v", fn, i, err)
			lit = "null"
		}
		b.WriteString(lit)
	}
	b.WriteString(");")
	return b.String()
}
