package lang

import (
	"strings"
	"sync"

	"github.com/bethropolis/hubmark/internal/logger"
)

// Registry maps fence info strings to languages.
type Registry struct {
	mu        sync.RWMutex
	languages []*Language
	byAlias   map[string]*Language
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byAlias: make(map[string]*Language)}
}

// Register adds a language to the registry
func (r *Registry) Register(lang *Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.languages = append(r.languages, lang)
	for _, alias := range lang.Aliases {
		key := strings.ToLower(alias)
		if existing, ok := r.byAlias[key]; ok {
			logger.Warnf("Alias %s already registered to %s, overriding with %s", key, existing.Name, lang.Name)
		}
		r.byAlias[key] = lang
	}
	logger.DebugTagf("highlight", "Registered language: %s with aliases: %v", lang.Name, lang.Aliases)
}

// GetForInfo returns the language named by a fence info string, or nil.
// Only the first word counts: "go title=main.go" selects go.
func (r *Registry) GetForInfo(info string) *Language {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(strings.TrimPrefix(fields[0], "{."))
	name = strings.TrimSuffix(name, "}")

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byAlias[name]
}

// GetAll returns all registered languages
func (r *Registry) GetAll() []*Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Language, len(r.languages))
	copy(result, r.languages)
	return result
}
