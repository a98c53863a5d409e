package tui

import (
	"testing"
	"time"

	"github.com/bethropolis/hubmark/internal/highlighter"
	"github.com/bethropolis/hubmark/internal/theme"
	"github.com/gdamore/tcell/v2"
)

func testTheme() *theme.Theme {
	return &theme.Theme{
		ID:   theme.Dark,
		Name: "test",
		Styles: map[string]tcell.Style{
			"Default":        tcell.StyleDefault,
			"Gutter":         tcell.StyleDefault.Dim(true),
			"markup.heading": tcell.StyleDefault.Bold(true),
			"keyword":        tcell.StyleDefault.Foreground(tcell.ColorRed),
		},
	}
}

func newSim(t *testing.T, w, h int) (*TUI, tcell.SimulationScreen) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	ui, err := NewWithScreen(s, testTheme())
	if err != nil {
		t.Fatal(err)
	}
	s.SetSize(w, h)
	t.Cleanup(ui.Close)
	return ui, s
}

func rowText(s tcell.SimulationScreen, y int) string {
	cells, w, _ := s.GetContents()
	var out []rune
	for x := 0; x < w; x++ {
		out = append(out, cells[y*w+x].Runes...)
	}
	return string(out)
}

func TestDrawSource(t *testing.T) {
	ui, s := newSim(t, 16, 4)
	view := SourceView{
		Lines: [][]byte{[]byte("# Hi"), []byte("\tfunc")},
		Highlights: highlighter.HighlightResult{
			0: {{StartCol: 0, EndCol: 4, StyleName: "markup.heading"}},
			1: {{StartCol: 1, EndCol: 5, StyleName: "keyword"}},
		},
		Height: 3,
	}
	DrawSource(ui, view, testTheme())
	ui.Show()

	if got := rowText(s, 0); got != "1 # Hi          " {
		t.Errorf("row 0 = %q", got)
	}
	if got := rowText(s, 1); got != "2     func      " {
		t.Errorf("row 1 = %q", got)
	}

	_, _, style, _ := s.GetContent(2, 0)
	if _, _, attrs := style.Decompose(); attrs&tcell.AttrBold == 0 {
		t.Error("heading not bold")
	}
	_, _, style, _ = s.GetContent(6, 1)
	if fg, _, _ := style.Decompose(); fg != tcell.ColorRed {
		t.Errorf("keyword fg = %v", fg)
	}
}

func TestDrawSourceScrolled(t *testing.T) {
	ui, s := newSim(t, 10, 3)
	view := SourceView{
		Lines:  [][]byte{[]byte("a"), []byte("b"), []byte("c")},
		Top:    2,
		Height: 2,
	}
	DrawSource(ui, view, testTheme())
	ui.Show()
	if got := rowText(s, 0); got != "3 c       " {
		t.Errorf("row 0 = %q", got)
	}
	if got := rowText(s, 1); got != "          " {
		t.Errorf("row past end = %q", got)
	}
}

func TestGutterWidth(t *testing.T) {
	tests := []struct{ lines, width, want int }{
		{0, 80, 2},
		{9, 80, 2},
		{10, 80, 3},
		{1000, 80, 5},
		{10, 3, 0},
	}
	for _, tt := range tests {
		if got := GutterWidth(tt.lines, tt.width); got != tt.want {
			t.Errorf("GutterWidth(%d, %d) = %d, want %d", tt.lines, tt.width, got, tt.want)
		}
	}
}

func TestDispatcherDeliversInterrupts(t *testing.T) {
	ui, _ := newSim(t, 10, 3)
	var order []int
	ui.Post(func() { order = append(order, 1) })
	ui.Post(func() { order = append(order, 2) })
	stop := ui.AfterFunc(time.Hour, func() { order = append(order, 99) })
	ui.AfterFunc(time.Millisecond, func() { order = append(order, 3) })

	for len(order) < 3 {
		ev, ok := ui.PollEvent().(*tcell.EventInterrupt)
		if !ok {
			continue
		}
		if !RunInterrupt(ev) {
			t.Fatal("interrupt did not carry a function")
		}
	}
	if order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v", order)
	}
	if !stop() {
		t.Error("pending timer reported as already run")
	}
	if stop() {
		t.Error("second stop reported pending")
	}
}
