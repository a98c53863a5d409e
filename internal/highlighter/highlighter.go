// Package highlighter computes styled ranges for Markdown source shown in
// the terminal pane. Markdown structure comes from goldmark; fenced code
// blocks in a known language are highlighted with tree-sitter.
package highlighter

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bethropolis/hubmark/internal/highlighter/lang"
	"github.com/bethropolis/hubmark/internal/logger"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Style names produced by the highlighter. Capture names from queries are
// passed through after dropping any ".suffix".
const (
	StyleHeading = "markup.heading"
	StyleFence   = "markup.fence"
	StyleCode    = "markup.code"
	StyleLink    = "markup.link"
)

// StyledRange is a styled span of rune columns [StartCol, EndCol) on one line.
type StyledRange struct {
	StartCol  int
	EndCol    int
	StyleName string
}

// HighlightResult maps line number -> styled ranges on that line, ordered so
// that later ranges refine earlier ones.
type HighlightResult map[int][]StyledRange

// Highlighter parses Markdown and the code blocks inside it.
type Highlighter struct {
	mu        sync.Mutex
	languages *lang.Registry
	queryFS   fs.FS
	md        goldmark.Markdown
	parser    *sitter.Parser
	queries   map[*lang.Language]*sitter.Query
	failed    map[*lang.Language]bool
}

// NewHighlighter creates a highlighter over the bundled languages.
func NewHighlighter() *Highlighter {
	return New(DefaultLanguages(), embeddedQueries)
}

// New creates a highlighter with a custom language registry and query source.
func New(languages *lang.Registry, queryFS fs.FS) *Highlighter {
	return &Highlighter{
		languages: languages,
		queryFS:   queryFS,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		parser:    sitter.NewParser(),
		queries:   make(map[*lang.Language]*sitter.Query),
		failed:    make(map[*lang.Language]bool),
	}
}

// Highlight computes styles for a Markdown document.
func (h *Highlighter) Highlight(ctx context.Context, source []byte) (HighlightResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	lines := newLineIndex(source)
	result := make(HighlightResult)

	doc := h.md.Parser().Parse(text.NewReader(source))
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Lines().Len() > 0 {
				line := lines.lineOf(node.Lines().At(0).Start)
				result.add(line, StyledRange{0, lines.runeLen(line), StyleHeading})
			}
		case *ast.FencedCodeBlock:
			if err := h.fencedBlock(ctx, source, lines, node, result); err != nil {
				return ast.WalkStop, err
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					result.addSpan(lines, t.Segment.Start, t.Segment.Stop, StyleCode)
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					result.addSpan(lines, t.Segment.Start, t.Segment.Stop, StyleLink)
				}
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	for line := range result {
		sortRanges(result[line])
	}
	logger.DebugTagf("highlight", "Highlight: found highlights on %d lines", len(result))
	return result, nil
}

// fencedBlock styles the fence lines and, for a known language, the code.
func (h *Highlighter) fencedBlock(ctx context.Context, source []byte, lines *lineIndex, node *ast.FencedCodeBlock, result HighlightResult) error {
	segs := node.Lines()

	open := -1
	if node.Info != nil {
		open = lines.lineOf(node.Info.Segment.Start)
	} else if segs.Len() > 0 {
		open = lines.lineOf(segs.At(0).Start) - 1
	}
	if open >= 0 {
		result.add(open, StyledRange{0, lines.runeLen(open), StyleFence})
	}

	last := open
	if segs.Len() > 0 {
		last = lines.lineOf(segs.At(segs.Len() - 1).Start)
	}
	if closing := last + 1; closing > open && closing < lines.count() && isFence(lines.text(closing)) {
		result.add(closing, StyledRange{0, lines.runeLen(closing), StyleFence})
	}

	if segs.Len() == 0 || node.Info == nil {
		return nil
	}
	language := h.languages.GetForInfo(string(node.Info.Segment.Value(source)))
	if language == nil {
		return nil
	}
	query := h.query(language)
	if query == nil {
		return nil
	}

	// Code rows map one to one onto source lines; each row may start past an
	// indent the fence stripped.
	var code []byte
	rowStarts := make([]int, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		rowStarts[i] = seg.Start
		code = append(code, seg.Value(source)...)
	}
	firstLine := lines.lineOf(rowStarts[0])

	h.parser.SetLanguage(language.TreeSitterLang)
	tree, err := h.parser.ParseCtx(ctx, nil, code)
	if err != nil {
		return fmt.Errorf("parsing %s block failed: %w", language.Name, err)
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			style := captureNameToStyleName(query.CaptureNameForId(capture.Index))
			start, end := capture.Node.StartPoint(), capture.Node.EndPoint()
			for row := int(start.Row); row <= int(end.Row) && row < len(rowStarts); row++ {
				startByte := rowStarts[row] - lines.start(firstLine+row)
				line := firstLine + row
				startCol := lines.runeIndex(line, startByte)
				if row == int(start.Row) {
					startCol = lines.runeIndex(line, startByte+int(start.Column))
				}
				endCol := lines.runeLen(line)
				if row == int(end.Row) {
					endCol = lines.runeIndex(line, startByte+int(end.Column))
				}
				result.add(line, StyledRange{startCol, endCol, style})
			}
		}
	}
	return nil
}

// query returns the compiled query for a language, compiling it on first use.
// A language whose query fails to compile is left unhighlighted.
func (h *Highlighter) query(language *lang.Language) *sitter.Query {
	if q, ok := h.queries[language]; ok {
		return q
	}
	if h.failed[language] {
		return nil
	}
	src, err := language.GetQuery(h.queryFS)
	if err == nil {
		var q *sitter.Query
		q, err = sitter.NewQuery(src, language.TreeSitterLang)
		if err == nil {
			h.queries[language] = q
			return q
		}
	}
	logger.Warnf("Highlighter: no highlighting for %s: %v", language.Name, err)
	h.failed[language] = true
	return nil
}

func (r HighlightResult) add(line int, sr StyledRange) {
	if line < 0 || sr.EndCol <= sr.StartCol {
		return
	}
	r[line] = append(r[line], sr)
}

// addSpan styles the byte range [start, stop) of source, splitting at newlines.
func (r HighlightResult) addSpan(lines *lineIndex, start, stop int, style string) {
	for start < stop {
		line := lines.lineOf(start)
		lineEnd := lines.start(line) + len(lines.text(line))
		end := stop
		if end > lineEnd {
			end = lineEnd
		}
		r.add(line, StyledRange{
			StartCol:  lines.runeIndex(line, start-lines.start(line)),
			EndCol:    lines.runeIndex(line, end-lines.start(line)),
			StyleName: style,
		})
		if line+1 >= lines.count() {
			return
		}
		start = lines.start(line + 1)
	}
}

// sortRanges orders by start column, wider ranges first, so a narrower range
// drawn later wins over the one it sits in.
func sortRanges(ranges []StyledRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].StartCol != ranges[j].StartCol {
			return ranges[i].StartCol < ranges[j].StartCol
		}
		return ranges[i].EndCol-ranges[i].StartCol > ranges[j].EndCol-ranges[j].StartCol
	})
}

func isFence(line []byte) bool {
	trimmed := strings.TrimLeft(string(line), " ")
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

// captureNameToStyleName maps Tree-sitter capture names (like @keyword.control)
// to the style names used by the theme system.
func captureNameToStyleName(captureName string) string {
	captureName = strings.TrimPrefix(captureName, "@")
	if dotIndex := strings.Index(captureName, "."); dotIndex != -1 {
		return captureName[:dotIndex]
	}
	return captureName
}

// lineIndex locates line starts in a source buffer.
type lineIndex struct {
	src    []byte
	starts []int
}

func newLineIndex(src []byte) *lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, starts: starts}
}

func (li *lineIndex) count() int { return len(li.starts) }

func (li *lineIndex) start(line int) int { return li.starts[line] }

// lineOf returns the line containing byte offset off.
func (li *lineIndex) lineOf(off int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > off }) - 1
}

// text returns a line without its newline or carriage return.
func (li *lineIndex) text(line int) []byte {
	if line < 0 || line >= len(li.starts) {
		return nil
	}
	end := len(li.src)
	if line+1 < len(li.starts) {
		end = li.starts[line+1] - 1
	}
	l := li.src[li.starts[line]:end]
	if n := len(l); n > 0 && l[n-1] == '\r' {
		l = l[:n-1]
	}
	return l
}

func (li *lineIndex) runeLen(line int) int {
	return utf8.RuneCount(li.text(line))
}

func (li *lineIndex) runeIndex(line, byteOffset int) int {
	return byteOffsetToRuneIndex(li.text(line), byteOffset)
}

// byteOffsetToRuneIndex converts a byte offset to a rune index in a byte slice.
func byteOffsetToRuneIndex(line []byte, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(line) {
		byteOffset = len(line)
	}
	runeIndex := 0
	currentOffset := 0
	for currentOffset < byteOffset {
		_, size := utf8.DecodeRune(line[currentOffset:])
		if currentOffset+size > byteOffset {
			break
		}
		currentOffset += size
		runeIndex++
	}
	return runeIndex
}
