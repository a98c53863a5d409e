// Package assets bundles the document template, the in-document runtime and
// the theme stylesheets.
package assets

import (
	"embed"
	"io/fs"
	"os"
	"path"

	"github.com/bethropolis/hubmark/internal/logger"
)

//go:embed files
var embedded embed.FS

// Paths of the bundled assets, relative to the asset root.
const (
	TemplateHTML = "hubmark.html"
	RuntimeJS    = "hubmark.js"
	MarkedJS     = "libs/js/marked.min.js"
	HighlightJS  = "libs/js/highlight.min.js"
)

// ThemeCSS returns the path of the customizable stylesheet for a theme.
func ThemeCSS(theme string) string {
	return path.Join("css", "hubmark."+theme+".css")
}

// HighlightCSS returns the path of the code highlighting stylesheet for a theme.
func HighlightCSS(theme string) string {
	return path.Join("css", "highlight."+theme+".css")
}

// FS returns the bundled assets rooted at the asset root.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}

// ReadFileContent returns the content of name, or "" if it cannot be read.
func ReadFileContent(fsys fs.FS, name string) string {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		logger.Debugf("assets: cannot read '%s': %v", name, err)
		return ""
	}
	return string(data)
}

// layered resolves names from the override directory first, then the bundle.
type layered struct {
	override fs.FS
	base     fs.FS
}

func (l layered) Open(name string) (fs.File, error) {
	if l.override != nil {
		if f, err := l.override.Open(name); err == nil {
			return f, nil
		}
	}
	return l.base.Open(name)
}

// WithOverrides layers the files under dir over the bundled assets. An empty
// dir returns the bundle unchanged.
func WithOverrides(dir string) fs.FS {
	if dir == "" {
		return FS()
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Warnf("assets: override dir '%s' is not usable, using bundled assets", dir)
		return FS()
	}
	logger.Infof("assets: using overrides from '%s'", dir)
	return layered{override: os.DirFS(dir), base: FS()}
}
