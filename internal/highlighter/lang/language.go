package lang

import (
	"fmt"
	"io/fs"

	"github.com/bethropolis/hubmark/internal/logger"
	sitter "github.com/smacker/go-tree-sitter"
)

// Language represents a fenced code block language with its highlighting configuration
type Language struct {
	// Name is the display name of the language
	Name string

	// TreeSitterLang is the tree-sitter language instance
	TreeSitterLang *sitter.Language

	// Aliases are the fence info strings that select this language ("go", "golang")
	Aliases []string

	// QueryPath is the directory of the highlight query under queries/
	QueryPath string
}

// GetQuery loads the highlight query for this language from fsys
func (l *Language) GetQuery(fsys fs.FS) ([]byte, error) {
	if fsys == nil {
		return nil, fmt.Errorf("no query filesystem for %s", l.Name)
	}
	if l.QueryPath == "" {
		return nil, fmt.Errorf("no query path defined for language %s", l.Name)
	}

	queryPath := fmt.Sprintf("queries/%s/highlights.scm", l.QueryPath)
	query, err := fs.ReadFile(fsys, queryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load query for language %s: %w", l.Name, err)
	}
	logger.DebugTagf("highlight", "Loaded query from %s for %s (%d bytes)", queryPath, l.Name, len(query))
	return query, nil
}
