package engine

import (
	"fmt"
	"sort"
)

// Registry resolves game kinds to rule modules. It is constructed once at
// process start, populated, and read-only afterwards; callers receive it by
// reference rather than through package-level state.
type Registry struct {
	modules map[string]Ruleset
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Ruleset)}
}

// Register adds a module under its meta key.
func (r *Registry) Register(mod Ruleset) error {
	key := mod.Meta().Key
	if key == "" {
		return fmt.Errorf("module %T has an empty key", mod)
	}
	if _, dup := r.modules[key]; dup {
		return fmt.Errorf("module key %q already registered", key)
	}
	r.modules[key] = mod
	return nil
}

// Lookup returns the module registered under key.
func (r *Registry) Lookup(key string) (Ruleset, bool) {
	mod, ok := r.modules[key]
	return mod, ok
}

// Keys returns the registered game kinds in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.modules))
	for k := range r.modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
