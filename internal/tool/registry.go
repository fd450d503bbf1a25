package tool

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrToolNotFound indicates a lookup for an unregistered tool name.
var ErrToolNotFound = errors.New("tool not found")

// DuplicateToolError indicates a registration collided with an existing
// tool of the same name. Later registrations never silently replace
// earlier ones.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// Registry is a thread-safe lookup table of tool definitions.
//
// Registration happens once during server initialization; after that the
// registry is effectively read-only and lookups are frequent, so access is
// guarded by a read-write lock.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Definition, 16),
	}
}

// Register adds a definition to the registry.
//
// It returns a *DuplicateToolError if a tool with the same name already
// exists, and a plain error if the definition is structurally incomplete
// (missing name, description, or handler).
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return errors.New("nil tool definition")
	}

	if def.Name == "" {
		return errors.New("tool name is required")
	}

	if def.Description == "" {
		return fmt.Errorf("tool %q: description is required", def.Name)
	}

	if def.Handler == nil {
		return fmt.Errorf("tool %q: handler is required", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return &DuplicateToolError{Name: def.Name}
	}

	r.tools[def.Name] = def
	r.order = append(r.order, def.Name)

	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}

	return def, nil
}

// List returns all definitions in registration order. The returned slice
// is a copy; callers may not mutate the definitions it points to.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name])
	}

	return defs
}

// ListByCategory returns tool names grouped by category. Names within a
// category keep registration order; categories are sorted for stable
// iteration by callers.
func (r *Registry) ListByCategory() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCategory := make(map[string][]string)
	for _, name := range r.order {
		def := r.tools[name]
		byCategory[def.Category] = append(byCategory[def.Category], name)
	}

	return byCategory
}

// Categories returns the sorted list of categories with at least one tool.
func (r *Registry) Categories() []string {
	byCategory := r.ListByCategory()

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}

	sort.Strings(categories)

	return categories
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}
