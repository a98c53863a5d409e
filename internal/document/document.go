// Package document assembles the single self-contained HTML page the renderer
// surface loads: template, theme stylesheets and the in-document runtime.
package document

import (
	"fmt"
	"html"
	"io/fs"
	"strings"

	"github.com/bethropolis/hubmark/internal/assets"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/theme"
)

// Default locations of the renderer libraries when they are not bundled.
const (
	DefaultMarkedURL    = "https://cdn.jsdelivr.net/npm/marked@12.0.2/marked.min.js"
	DefaultHighlightURL = "https://cdn.jsdelivr.net/gh/highlightjs/cdn-release@11.9.0/build/highlight.min.js"
)

// AssetLoadError reports a required asset that is missing or empty.
type AssetLoadError struct {
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load asset '%s': %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to load asset '%s': empty", e.Path)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

// Options controls how the page is assembled.
type Options struct {
	// Theme is the theme the page starts with.
	Theme theme.ID
	// FS holds the assets. Nil means the bundled assets.
	FS fs.FS
	// CustomCSS replaces the theme's document stylesheet when set.
	CustomCSS string
	// MarkedURL and HighlightURL are used when the libraries are not in FS.
	MarkedURL    string
	HighlightURL string
}

// Build returns the complete HTML page.
func Build(opts Options) (string, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = assets.FS()
	}
	id := opts.Theme
	if id == "" {
		id = theme.Default
	}

	tmpl, err := require(fsys, assets.TemplateHTML)
	if err != nil {
		return "", err
	}
	runtime, err := require(fsys, assets.RuntimeJS)
	if err != nil {
		return "", err
	}

	customCSS := opts.CustomCSS
	if customCSS == "" {
		if customCSS, err = require(fsys, assets.ThemeCSS(string(id))); err != nil {
			return "", err
		}
	}
	highlightCSS, err := require(fsys, assets.HighlightCSS(string(id)))
	if err != nil {
		return "", err
	}

	libs := libScripts(fsys, opts)

	// The replacer scans once, so placeholders inside substituted content are left alone.
	r := strings.NewReplacer(
		"{{theme_id}}", html.EscapeString(string(id)),
		"{{custom_css}}", customCSS,
		"{{highlight_css}}", highlightCSS,
		"{{lib_scripts}}", libs,
		"{{custom_js}}", runtime,
	)
	page := r.Replace(tmpl)
	logger.Debugf("document: built %d bytes for theme '%s'", len(page), id)
	return page, nil
}

// libScripts inlines the renderer libraries when FS has them and links them otherwise.
func libScripts(fsys fs.FS, opts Options) string {
	var b strings.Builder
	libs := []struct {
		path, url, fallback string
	}{
		{assets.MarkedJS, opts.MarkedURL, DefaultMarkedURL},
		{assets.HighlightJS, opts.HighlightURL, DefaultHighlightURL},
	}
	for _, lib := range libs {
		if src := assets.ReadFileContent(fsys, lib.path); src != "" {
			b.WriteString("<script>\n")
			b.WriteString(src)
			b.WriteString("\n</script>\n")
			continue
		}
		url := lib.url
		if url == "" {
			url = lib.fallback
		}
		fmt.Fprintf(&b, "<script src=\"%s\"></script>\n", html.EscapeString(url))
	}
	return b.String()
}

func require(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", &AssetLoadError{Path: name, Err: err}
	}
	if len(data) == 0 {
		return "", &AssetLoadError{Path: name}
	}
	return string(data), nil
}
