// internal/tui/drawing.go
package tui

import (
	"fmt"
	"math"

	"github.com/bethropolis/hubmark/internal/highlighter"
	"github.com/bethropolis/hubmark/internal/theme"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

const tabWidth = 4

// SourceView is the part of the source pane to draw.
type SourceView struct {
	Lines      [][]byte
	Highlights highlighter.HighlightResult
	Top        int // First visible line
	Height     int // Rows available, above the status bar
}

// GutterWidth returns the width of the line number gutter for lineCount lines.
func GutterWidth(lineCount, width int) int {
	if lineCount <= 0 {
		lineCount = 1 // Avoid Log10(0)
	}
	maxDigits := int(math.Log10(float64(lineCount))) + 1
	gutterWidth := maxDigits + 1 // Space between number and text
	if gutterWidth >= width {
		return 0 // Not enough space for gutter and text
	}
	return gutterWidth
}

// DrawSource draws the visible portion of the source with its highlights.
func DrawSource(tuiManager *TUI, view SourceView, activeTheme *theme.Theme) {
	defaultStyle := activeTheme.GetStyle("Default")
	gutterStyle := activeTheme.GetStyle("Gutter")

	width, _ := tuiManager.Size()
	if view.Height <= 0 || width <= 0 {
		return
	}
	screen := tuiManager.screen

	gutterWidth := GutterWidth(len(view.Lines), width)
	maxDigits := gutterWidth - 1

	for screenY := 0; screenY < view.Height; screenY++ {
		lineIdx := screenY + view.Top

		for fillX := 0; fillX < width; fillX++ {
			screen.SetContent(fillX, screenY, ' ', nil, defaultStyle)
		}
		if lineIdx < 0 || lineIdx >= len(view.Lines) {
			continue
		}

		if gutterWidth > 0 {
			for i, r := range fmt.Sprintf("%*d", maxDigits, lineIdx+1) {
				screen.SetContent(i, screenY, r, nil, gutterStyle)
			}
		}

		drawLine(screen, view.Lines[lineIdx], view.Highlights[lineIdx], gutterWidth, width, screenY, activeTheme)
	}
}

// drawLine draws one line by grapheme cluster, styling each cluster by the
// last range covering its first rune.
func drawLine(screen tcell.Screen, line []byte, ranges []highlighter.StyledRange, x0, width, y int, activeTheme *theme.Theme) {
	defaultStyle := activeTheme.GetStyle("Default")
	gr := uniseg.NewGraphemes(string(line))
	x := x0
	runeIndex := 0

	for gr.Next() && x < width {
		runes := gr.Runes()
		style := defaultStyle
		for _, r := range ranges {
			if runeIndex >= r.StartCol && runeIndex < r.EndCol {
				style = activeTheme.GetStyle(r.StyleName)
			}
		}

		if runes[0] == '\t' {
			spaces := tabWidth - ((x - x0) % tabWidth)
			for i := 0; i < spaces && x < width; i++ {
				screen.SetContent(x, y, ' ', nil, style)
				x++
			}
		} else {
			clusterWidth := gr.Width()
			if x+clusterWidth > width {
				break
			}
			screen.SetContent(x, y, runes[0], runes[1:], style)
			// Fill remaining cells for wide characters
			for cw := 1; cw < clusterWidth; cw++ {
				screen.SetContent(x+cw, y, ' ', nil, style)
			}
			x += clusterWidth
		}
		runeIndex += len(runes)
	}
}
