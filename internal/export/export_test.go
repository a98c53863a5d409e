package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/bethropolis/hubmark/internal/theme"
)

func testThemes() *theme.Registry {
	return theme.NewRegistry(fstest.MapFS{
		"css/hubmark.dark.css":    {Data: []byte(".markdown-body{color:#c9d1d9}")},
		"css/highlight.dark.css":  {Data: []byte(".hljs{}")},
		"css/hubmark.light.css":   {Data: []byte(".markdown-body{color:#24292f}")},
		"css/highlight.light.css": {Data: []byte(".hljs{}")},
	})
}

const sample = "# Sync Test\n\nSome *text* with a [link](https://example.com).\n\n" +
	"```go\nfunc main() {}\n```\n\n" +
	"| a | b |\n|---|---|\n| 1 | 2 |\n\n- [x] done\n"

func TestRenderPage(t *testing.T) {
	e := New(testThemes(), Options{Title: "notes"})
	out, err := e.Render([]byte(sample), theme.Light)
	if err != nil {
		t.Fatal(err)
	}
	page := string(out)
	for _, want := range []string{
		"<title>notes</title>",
		`<style data-theme="light">`,
		".markdown-body{color:#24292f}",
		`<h1 id="sync-test">Sync Test</h1>`,
		`class="chroma"`,
		"<table>",
		`type="checkbox"`,
		`<a href="https://example.com">link</a>`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if !strings.Contains(page, ".chroma") {
		t.Errorf("chroma stylesheet missing")
	}
}

func TestRenderUnknownTheme(t *testing.T) {
	e := New(testThemes(), Options{})
	var nf *theme.NotFoundError
	if _, err := e.Render([]byte("x"), "sepia"); !errors.As(err, &nf) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}

func TestHardWrapsAndRawHTML(t *testing.T) {
	src := []byte("line one\nline two\n\n<div class=\"raw\">x</div>\n")

	plain, err := New(testThemes(), Options{}).Render(src, theme.Dark)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(plain), "<br>") || strings.Contains(string(plain), `<div class="raw">`) {
		t.Errorf("default options should not hard wrap or pass raw html")
	}

	rich, err := New(testThemes(), Options{HardWraps: true, Unsafe: true}).Render(src, theme.Dark)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rich), "<br>") || !strings.Contains(string(rich), `<div class="raw">`) {
		t.Errorf("hard wraps or raw html missing:\n%s", rich)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	if err := New(testThemes(), Options{}).WriteFile(path, []byte("# Hi"), theme.Dark); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<h1 id="hi">Hi</h1>`) {
		t.Errorf("written page = %s", data)
	}
}
