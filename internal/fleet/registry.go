package fleet

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fleet-dash/internal/domain"
	"fleet-dash/internal/tabular"
)

// Registry resolves schemas by name. It is populated at startup and only
// read afterwards.
type Registry struct {
	schemas map[string]tabular.Schema
}

// NewRegistry returns a registry holding the builtin schemas plus extra.
// An extra schema with a builtin name is rejected.
func NewRegistry(extra ...tabular.Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]tabular.Schema)}
	for _, s := range BuiltinSchemas() {
		r.schemas[s.Name] = s
	}
	for _, s := range extra {
		if _, exists := r.schemas[s.Name]; exists {
			return nil, fmt.Errorf("schema %q is already registered", s.Name)
		}
		r.schemas[s.Name] = s
	}
	return r, nil
}

// LoadRegistry builds a registry with the builtin schemas and those found
// in the given YAML files.
func LoadRegistry(paths ...string) (*Registry, error) {
	var extra []tabular.Schema
	for _, p := range paths {
		schemas, err := tabular.LoadSchemaFile(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		extra = append(extra, schemas...)
	}
	return NewRegistry(extra...)
}

// LoadRegistryDir is LoadRegistry over every .yaml and .yml file in dir.
// An empty dir yields the builtin schemas only.
func LoadRegistryDir(dir string) (*Registry, error) {
	if dir == "" {
		return NewRegistry()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return LoadRegistry(paths...)
}

// Get returns the schema with the given name.
func (r *Registry) Get(name string) (tabular.Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return tabular.Schema{}, domain.ErrNotFound("schema %q not found", name)
	}
	return s, nil
}

// List returns all schemas sorted by name.
func (r *Registry) List() []tabular.Schema {
	out := make([]tabular.Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
