// internal/highlighter/languages.go
package highlighter

import (
	"embed"

	"github.com/bethropolis/hubmark/internal/highlighter/lang"

	gosrc "github.com/smacker/go-tree-sitter/golang"
	jssrc "github.com/smacker/go-tree-sitter/javascript"
	pythonsrc "github.com/smacker/go-tree-sitter/python"
	rustsrc "github.com/smacker/go-tree-sitter/rust"
)

//go:embed queries/*/*.scm
var embeddedQueries embed.FS

// DefaultLanguages returns a registry with every bundled grammar.
func DefaultLanguages() *lang.Registry {
	r := lang.NewRegistry()

	r.Register(&lang.Language{
		Name:           "Go",
		TreeSitterLang: gosrc.GetLanguage(),
		Aliases:        []string{"go", "golang"},
		QueryPath:      "go",
	})
	r.Register(&lang.Language{
		Name:           "Python",
		TreeSitterLang: pythonsrc.GetLanguage(),
		Aliases:        []string{"python", "py", "python3"},
		QueryPath:      "python",
	})
	r.Register(&lang.Language{
		Name:           "JavaScript",
		TreeSitterLang: jssrc.GetLanguage(),
		Aliases:        []string{"javascript", "js", "mjs", "jsx"},
		QueryPath:      "javascript",
	})
	r.Register(&lang.Language{
		Name:           "Rust",
		TreeSitterLang: rustsrc.GetLanguage(),
		Aliases:        []string{"rust", "rs"},
		QueryPath:      "rust",
	})
	return r
}
