// internal/theme/theme.go
package theme

import (
	"fmt"
	"strings"

	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/gdamore/tcell/v2"
)

// ID names one of the supported themes.
type ID string

const (
	Dark  ID = "dark"
	Light ID = "light"
)

// Default is the theme used when none is configured.
const Default = Dark

var supported = []ID{Dark, Light}

func (id ID) String() string { return string(id) }

// Supported returns the fixed set of theme identifiers.
func Supported() []ID {
	out := make([]ID, len(supported))
	copy(out, supported)
	return out
}

// ParseID validates a theme name against the supported set (case-insensitive).
func ParseID(name string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(name)))
	for _, s := range supported {
		if s == id {
			return id, nil
		}
	}
	return "", &NotFoundError{ID: name, Reason: "not a supported theme"}
}

// NotFoundError reports a theme that has no resolvable style payload.
type NotFoundError struct {
	ID     string
	Reason string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("theme '%s' not found: %s", e.ID, e.Reason)
}

// Theme is a named style payload for the document plus the terminal palette
// the host draws its own chrome with.
type Theme struct {
	ID     ID
	Name   string
	IsDark bool

	// Style is the customizable document stylesheet.
	Style string
	// Highlight styles code blocks. It comes with the highlighting dependency
	// and is not customizable per file, only replaceable as a whole.
	Highlight string
	// ChromaStyle names the chroma style used for HTML export.
	ChromaStyle string

	Styles map[string]tcell.Style
}

// Payload returns the stylesheet injected into the document for this theme.
func (t *Theme) Payload() string {
	if t.Style == "" && t.Highlight == "" {
		return ""
	}
	return t.Style + "\n" + t.Highlight
}

// GetStyle looks up a terminal style, falling back to the base name
// ("keyword.control" -> "keyword") and then to "Default".
func (t *Theme) GetStyle(name string) tcell.Style {
	if style, ok := t.Styles[name]; ok {
		return style
	}

	if dotIndex := strings.Index(name, "."); dotIndex != -1 {
		if style, ok := t.Styles[name[:dotIndex]]; ok {
			return style
		}
	}

	if defStyle, ok := t.Styles["Default"]; ok {
		return defStyle
	}

	logger.Warnf("Theme '%s': Style '%s' and 'Default' style not found, using tcell default.", t.Name, name)
	return tcell.StyleDefault
}

// darkStyles is the DevComfort Dark palette.
func darkStyles() map[string]tcell.Style {
	background := tcell.NewHexColor(0x2a2f38)
	foreground := tcell.NewHexColor(0xc5cdd9)
	comment := tcell.NewHexColor(0x5c6370)
	orange := tcell.NewHexColor(0xd19a66)
	yellow := tcell.NewHexColor(0xe5c07b)
	green := tcell.NewHexColor(0x98c379)
	cyan := tcell.NewHexColor(0x56b6c2)
	blue := tcell.NewHexColor(0x61afef)
	magenta := tcell.NewHexColor(0xc678dd)

	base := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(foreground)
	bar := tcell.StyleDefault.Background(background).Foreground(foreground)

	return map[string]tcell.Style{
		"Default":          base,
		"StatusBar":        bar,
		"StatusBarReady":   bar.Foreground(green).Bold(true),
		"StatusBarPending": bar.Foreground(yellow).Bold(true),
		"StatusBarMessage": bar.Bold(true),
		"Gutter":           base.Foreground(comment),

		"markup.heading": base.Foreground(blue).Bold(true),
		"markup.fence":   base.Foreground(comment),
		"markup.code":    base.Foreground(green),

		"keyword":  base.Foreground(blue).Bold(true),
		"string":   base.Foreground(green),
		"comment":  base.Foreground(comment).Italic(true),
		"number":   base.Foreground(orange),
		"constant": base.Foreground(orange),
		"type":     base.Foreground(cyan),
		"function": base.Foreground(yellow),
		"escape":   base.Foreground(magenta),
	}
}

// lightStyles mirrors darkStyles on a light terminal.
func lightStyles() map[string]tcell.Style {
	background := tcell.NewHexColor(0xe1e4e8)
	foreground := tcell.NewHexColor(0x24292e)
	comment := tcell.NewHexColor(0x6a737d)
	orange := tcell.NewHexColor(0xe36209)
	purple := tcell.NewHexColor(0x6f42c1)
	green := tcell.NewHexColor(0x22863a)
	blue := tcell.NewHexColor(0x005cc5)
	red := tcell.NewHexColor(0xd73a49)

	base := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(foreground)
	bar := tcell.StyleDefault.Background(background).Foreground(foreground)

	return map[string]tcell.Style{
		"Default":          base,
		"StatusBar":        bar,
		"StatusBarReady":   bar.Foreground(green).Bold(true),
		"StatusBarPending": bar.Foreground(orange).Bold(true),
		"StatusBarMessage": bar.Bold(true),
		"Gutter":           base.Foreground(comment),

		"markup.heading": base.Foreground(blue).Bold(true),
		"markup.fence":   base.Foreground(comment),
		"markup.code":    base.Foreground(green),

		"keyword":  base.Foreground(red).Bold(true),
		"string":   base.Foreground(tcell.NewHexColor(0x032f62)),
		"comment":  base.Foreground(comment).Italic(true),
		"number":   base.Foreground(blue),
		"constant": base.Foreground(blue),
		"type":     base.Foreground(orange),
		"function": base.Foreground(purple),
		"escape":   base.Foreground(blue),
	}
}
