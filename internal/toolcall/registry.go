// Package toolcall extracts, repairs, validates, and executes the structured
// function calls that inference workers embed in free text.
package toolcall

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FieldType is the primitive type tag of one schema field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeFloat   FieldType = "float"
	TypeBoolean FieldType = "boolean"
	TypeList    FieldType = "list"
	TypeDict    FieldType = "dict"
)

// Field is one node of a declared schema tree: either a primitive type tag
// or a nested schema, never both.
type Field struct {
	Type   FieldType
	Nested Schema
}

// Schema maps field names to their declared types.
type Schema map[string]Field

// Prim returns a primitive field.
func Prim(t FieldType) Field { return Field{Type: t} }

// Obj returns a nested-schema field.
func Obj(s Schema) Field { return Field{Nested: s} }

// Func is a registered callable. Callables receive already-transformed,
// parameter-filtered arguments. Blocking callables should honor ctx.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Entry binds a tool name to its callable and declared contract. Entries
// are registered once at startup and read-only thereafter.
type Entry struct {
	// Name is the tool name workers reference.
	Name string
	// Description is the catalog text shown to workers.
	Description string
	// Schema declares the argument fields and their types.
	Schema Schema
	// Doc is the docstring-like contract; closed value sets for string
	// fields are read from it, e.g. "region: (Asia, Europe, Americas)".
	Doc string
	// Fn is the callable.
	Fn Func
}

// Registry is the static mapping from tool name to entry. Built once at
// process start and passed by reference; it requires no synchronization
// after construction, but Register is still guarded so construction order
// does not matter.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds an entry. A duplicate name replaces the previous entry.
func (r *Registry) Register(e *Entry) error {
	if e.Name == "" {
		return fmt.Errorf("tool entry missing name")
	}
	if e.Fn == nil {
		return fmt.Errorf("tool %s missing callable", e.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Name] = e
	return nil
}

// Lookup returns the entry for a name, or (nil, false).
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns registered tool names sorted for deterministic catalogs.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns all entries sorted by name.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Entry, 0, len(names))
	for _, name := range names {
		out = append(out, r.entries[name])
	}
	return out
}

// Catalog renders the tool list for a decomposition or function-call prompt.
func (r *Registry) Catalog() string {
	var b strings.Builder
	for _, e := range r.Entries() {
		fmt.Fprintf(&b, "- %s: %s\n", e.Name, e.Description)
	}
	return b.String()
}

// ParamNames returns the entry's declared top-level parameter names sorted.
// The registry is the source of truth: executed arguments are filtered down
// to this set and unknown extras are silently dropped.
func (e *Entry) ParamNames() []string {
	names := make([]string, 0, len(e.Schema))
	for name := range e.Schema {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
