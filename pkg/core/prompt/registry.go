package prompt

import (
	"fmt"
	"slices"
	"sync"
)

// Registry resolves prompt ids to templates. Overrides loaded from disk
// shadow the built-in debate templates with the same id.
type Registry struct {
	mu        sync.RWMutex
	overrides map[string]*PromptTemplate
	builtin   map[string]*PromptTemplate
}

var (
	globalRegistry *Registry
	once           sync.Once
)

// Get returns the process-wide registry, seeded with the built-in templates.
func Get() *Registry {
	once.Do(func() {
		globalRegistry = NewRegistry(defaultTemplates)
	})
	return globalRegistry
}

// NewRegistry returns a registry with builtin as fallbacks.
func NewRegistry(builtin map[string]*PromptTemplate) *Registry {
	return &Registry{
		overrides: make(map[string]*PromptTemplate),
		builtin:   builtin,
	}
}

// Register adds an override. Registering an id twice keeps the last one.
func (r *Registry) Register(pt *PromptTemplate) error {
	if pt.ID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[pt.ID] = pt
	return nil
}

// GetPrompt returns the override for id, else the built-in template.
func (r *Registry) GetPrompt(id string) (*PromptTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.overrides[id]; ok {
		return p, nil
	}
	if p, ok := r.builtin[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("prompt not found: %s", id)
}

// IsOverridden reports whether id resolves to a loaded file.
func (r *Registry) IsOverridden(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.overrides[id]
	return ok
}

// ListPrompts returns every resolvable id, sorted.
func (r *Registry) ListPrompts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.overrides)+len(r.builtin))
	for id := range r.builtin {
		ids = append(ids, id)
	}
	for id := range r.overrides {
		if _, dup := r.builtin[id]; !dup {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Count returns the number of overrides.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.overrides)
}

// Reset drops all overrides.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides = make(map[string]*PromptTemplate)
}
