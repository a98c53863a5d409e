package document

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/bethropolis/hubmark/internal/theme"
)

func pageFS() fstest.MapFS {
	return fstest.MapFS{
		"hubmark.html":            {Data: []byte(`<style data-theme="{{theme_id}}">{{custom_css}}</style><style>{{highlight_css}}</style>{{lib_scripts}}<script>{{custom_js}}</script>`)},
		"hubmark.js":              {Data: []byte("window.markdownRendererReady = false;")},
		"css/hubmark.dark.css":    {Data: []byte("DARK")},
		"css/highlight.dark.css":  {Data: []byte("HLDARK")},
		"css/hubmark.light.css":   {Data: []byte("LIGHT")},
		"css/highlight.light.css": {Data: []byte("HLLIGHT")},
	}
}

func TestBuildInlinesAssets(t *testing.T) {
	page, err := Build(Options{Theme: theme.Light, FS: pageFS(), MarkedURL: "/m.js"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`data-theme="light"`,
		"<style data-theme=\"light\">LIGHT</style>",
		"<style>HLLIGHT</style>",
		`<script src="/m.js"></script>`,
		`<script src="` + DefaultHighlightURL + `"></script>`,
		"<script>window.markdownRendererReady = false;</script>",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q:\n%s", want, page)
		}
	}
	if strings.Contains(page, "{{") {
		t.Errorf("unreplaced placeholder in page:\n%s", page)
	}
}

func TestBuildBundledLibrary(t *testing.T) {
	fsys := pageFS()
	fsys["libs/js/marked.min.js"] = &fstest.MapFile{Data: []byte("var marked={};")}
	page, err := Build(Options{FS: fsys})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(page, "<script>\nvar marked={};\n</script>") {
		t.Errorf("bundled library not inlined:\n%s", page)
	}
	if strings.Contains(page, DefaultMarkedURL) {
		t.Errorf("bundled library should not be linked")
	}
	if !strings.Contains(page, "DARK") {
		t.Errorf("default theme not used")
	}
}

func TestBuildCustomCSS(t *testing.T) {
	fsys := pageFS()
	delete(fsys, "css/hubmark.dark.css")
	page, err := Build(Options{FS: fsys, CustomCSS: "MINE"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(page, ">MINE<") {
		t.Errorf("custom css not used:\n%s", page)
	}
}

func TestBuildMissingAsset(t *testing.T) {
	for _, missing := range []string{"hubmark.html", "hubmark.js", "css/highlight.dark.css"} {
		fsys := pageFS()
		delete(fsys, missing)
		_, err := Build(Options{FS: fsys})
		var ale *AssetLoadError
		if !errors.As(err, &ale) {
			t.Errorf("missing %s: err = %v, want AssetLoadError", missing, err)
			continue
		}
		if ale.Path != missing || !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("missing %s: got %v", missing, err)
		}
	}

	fsys := pageFS()
	fsys["hubmark.js"] = &fstest.MapFile{Data: nil}
	var ale *AssetLoadError
	if _, err := Build(Options{FS: fsys}); !errors.As(err, &ale) {
		t.Errorf("empty runtime: err = %v", err)
	}
}

func TestBuildBundledAssets(t *testing.T) {
	page, err := Build(Options{})
	if err != nil {
		t.Fatalf("bundled assets incomplete: %v", err)
	}
	for _, want := range []string{"markdownRendererReady", "markdown-body", "injectThemeStyle"} {
		if !strings.Contains(page, want) {
			t.Errorf("bundled page missing %q", want)
		}
	}
}
