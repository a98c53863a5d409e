// internal/theme/manager.go
package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bethropolis/hubmark/internal/assets"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/gdamore/tcell/v2"
)

// Registry resolves theme identifiers to their style payloads. The set of
// identifiers is fixed; files can only override what a supported theme looks like.
type Registry struct {
	mutex  sync.RWMutex
	themes map[ID]*Theme
}

// NewRegistry builds the registry from the stylesheets in fsys. A supported
// theme whose stylesheets are missing stays unresolvable rather than blank.
func NewRegistry(fsys fs.FS) *Registry {
	r := &Registry{themes: make(map[ID]*Theme)}

	builtins := []struct {
		id     ID
		name   string
		dark   bool
		chroma string
		styles map[string]tcell.Style
	}{
		{Dark, "GitHub Dark", true, "github-dark", darkStyles()},
		{Light, "GitHub Light", false, "github", lightStyles()},
	}

	for _, b := range builtins {
		t := &Theme{
			ID:          b.id,
			Name:        b.name,
			IsDark:      b.dark,
			Style:       assets.ReadFileContent(fsys, assets.ThemeCSS(string(b.id))),
			Highlight:   assets.ReadFileContent(fsys, assets.HighlightCSS(string(b.id))),
			ChromaStyle: b.chroma,
			Styles:      b.styles,
		}
		if t.Payload() == "" {
			logger.Warnf("Theme '%s': no stylesheet found, theme left unresolvable", b.id)
		}
		r.themes[b.id] = t
		logger.Debugf("Loaded built-in theme: %s", t.Name)
	}
	return r
}

// LoadThemesFromDir applies every .toml override file in dir. A missing
// directory is not an error.
func (r *Registry) LoadThemesFromDir(dir string) error {
	if dir == "" {
		return errors.New("theme directory path is not set")
	}
	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Infof("Theme directory '%s' does not exist. No theme overrides loaded.", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read theme directory '%s': %w", dir, err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	loaded := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".toml") {
			continue
		}
		filePath := filepath.Join(dir, file.Name())

		tt, id, err := decodeThemeFile(filePath)
		if err != nil {
			logger.Warnf("Failed to load theme from '%s': %v", filePath, err)
			continue
		}
		base, ok := r.themes[id]
		if !ok {
			logger.Warnf("Failed to load theme from '%s': no base theme for '%s'", filePath, id)
			continue
		}
		merged, err := tt.apply(base, dir)
		if err != nil {
			logger.Warnf("Failed to load theme from '%s': %v", filePath, err)
			continue
		}
		logger.Debugf("Loaded theme override '%s' for '%s' from '%s'", merged.Name, id, filePath)
		r.themes[merged.ID] = merged
		loaded++
	}
	logger.Infof("Loaded %d theme overrides from '%s'.", loaded, dir)
	return nil
}

// Get returns the theme for id.
func (r *Registry) Get(id ID) (*Theme, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	t, ok := r.themes[id]
	if !ok {
		return nil, &NotFoundError{ID: string(id), Reason: "not a supported theme"}
	}
	return t, nil
}

// LoadThemeStyle returns the stylesheet to inject for id. An unknown id or an
// empty payload is a NotFoundError, never an empty success.
func (r *Registry) LoadThemeStyle(id ID) (string, error) {
	t, err := r.Get(id)
	if err != nil {
		return "", err
	}
	payload := t.Payload()
	if payload == "" {
		return "", &NotFoundError{ID: string(id), Reason: "style payload missing"}
	}
	return payload, nil
}

// List returns the supported themes in their fixed order.
func (r *Registry) List() []*Theme {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]*Theme, 0, len(supported))
	for _, id := range supported {
		if t, ok := r.themes[id]; ok {
			out = append(out, t)
		}
	}
	return out
}
