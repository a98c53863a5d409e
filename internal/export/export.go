// Package export renders Markdown to a standalone HTML page styled like the
// preview, without a renderer surface.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/theme"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

// ThemeSource resolves theme identifiers.
type ThemeSource interface {
	Get(id theme.ID) (*theme.Theme, error)
}

// Options controls the Markdown conversion.
type Options struct {
	HardWraps bool
	Unsafe    bool // Pass raw HTML through
	Title     string
}

// Exporter converts Markdown documents to HTML pages.
type Exporter struct {
	themes ThemeSource
	opts   Options
	md     goldmark.Markdown
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style data-theme="{{.Theme}}">
{{.Style}}
</style>
<style data-highlight="{{.Theme}}">
{{.Highlight}}
</style>
</head>
<body>
<article id="content" class="markdown-body">
{{.Body}}
</article>
</body>
</html>
`))

// New creates an exporter.
func New(themes ThemeSource, opts Options) *Exporter {
	var rendererOpts []renderer.Option
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, goldhtml.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, goldhtml.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // Tables, strikethrough, autolinks, task lists
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					html.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)

	if opts.Title == "" {
		opts.Title = "hubmark"
	}
	return &Exporter{themes: themes, opts: opts, md: md}
}

// Render converts source to a complete page in the given theme.
func (e *Exporter) Render(source []byte, id theme.ID) ([]byte, error) {
	th, err := e.themes.Get(id)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := e.md.Convert(source, &body); err != nil {
		return nil, fmt.Errorf("export: convert markdown: %w", err)
	}

	highlight, err := chromaCSS(th.ChromaStyle)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	err = page.Execute(&out, struct {
		Title     string
		Theme     string
		Style     template.CSS
		Highlight template.CSS
		Body      template.HTML
	}{
		Title:     e.opts.Title,
		Theme:     string(th.ID),
		Style:     template.CSS(th.Style),
		Highlight: template.CSS(highlight),
		Body:      template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("export: render page: %w", err)
	}
	return out.Bytes(), nil
}

// WriteFile renders source and writes the page to path.
func (e *Exporter) WriteFile(path string, source []byte, id theme.ID) error {
	data, err := e.Render(source, id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write '%s': %w", path, err)
	}
	logger.Infof("Exported %d bytes of HTML to '%s'", len(data), path)
	return nil
}

// chromaCSS returns the class-based stylesheet for a chroma style. Unknown
// names fall back to chroma's default style.
func chromaCSS(name string) (string, error) {
	style := styles.Get(name)
	if style.Name != name {
		logger.Warnf("export: chroma style '%s' not found, using '%s'", name, style.Name)
	}
	var buf bytes.Buffer
	if err := html.New(html.WithClasses(true)).WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("export: highlight css: %w", err)
	}
	return buf.String(), nil
}
