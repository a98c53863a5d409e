package highlighter

import (
	"context"
	"testing"
)

const sample = "# Title\n" +
	"\n" +
	"Use `x := 1` now.\n" +
	"\n" +
	"```go\n" +
	"func main() {\n" +
	"\ts := \"hi\"\n" +
	"}\n" +
	"```\n" +
	"\n" +
	"```text\n" +
	"func plain() {}\n" +
	"```\n"

func hasRange(ranges []StyledRange, start, end int, style string) bool {
	for _, r := range ranges {
		if r.StartCol == start && r.EndCol == end && r.StyleName == style {
			return true
		}
	}
	return false
}

func TestHighlightMarkdown(t *testing.T) {
	res, err := NewHighlighter().Highlight(context.Background(), []byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		line  int
		start int
		end   int
		style string
	}{
		{"heading", 0, 0, 7, StyleHeading},
		{"code span", 2, 5, 11, StyleCode},
		{"opening fence", 4, 0, 5, StyleFence},
		{"keyword", 5, 0, 4, "keyword"},
		{"function name", 5, 5, 9, "function"},
		{"string", 6, 6, 10, "string"},
		{"closing fence", 8, 0, 3, StyleFence},
		{"unknown language fence", 10, 0, 7, StyleFence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !hasRange(res[tt.line], tt.start, tt.end, tt.style) {
				t.Errorf("line %d: no %s range [%d,%d) in %+v", tt.line, tt.style, tt.start, tt.end, res[tt.line])
			}
		})
	}

	for _, r := range res[11] {
		if r.StyleName == "keyword" {
			t.Errorf("block without a known language was highlighted: %+v", res[11])
		}
	}
}

func TestHighlightMultiLineCapture(t *testing.T) {
	src := "```go\nx := `a\nbc`\n```\n"
	res, err := NewHighlighter().Highlight(context.Background(), []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if !hasRange(res[1], 5, 7, "string") {
		t.Errorf("first row of raw string = %+v", res[1])
	}
	if !hasRange(res[2], 0, 3, "string") {
		t.Errorf("second row of raw string = %+v", res[2])
	}
}

func TestHighlightEmpty(t *testing.T) {
	res, err := NewHighlighter().Highlight(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestCaptureNameToStyleName(t *testing.T) {
	tests := map[string]string{
		"keyword":          "keyword",
		"@keyword.control": "keyword",
		"string.special":   "string",
		"":                 "",
	}
	for in, want := range tests {
		if got := captureNameToStyleName(in); got != want {
			t.Errorf("captureNameToStyleName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestByteOffsetToRuneIndex(t *testing.T) {
	line := []byte("héllo")
	if got := byteOffsetToRuneIndex(line, 3); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
	if got := byteOffsetToRuneIndex(line, 2); got != 1 {
		t.Errorf("mid-rune offset got %d, want 1", got)
	}
	if got := byteOffsetToRuneIndex(line, 99); got != 5 {
		t.Errorf("past end got %d, want 5", got)
	}
}
