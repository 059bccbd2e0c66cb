package pathvar

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"workbench/internal/errors"

	"gopkg.in/yaml.v3"
)

// registryFile is the on-disk layout of a Registry
type registryFile struct {
	Variables map[string]string `yaml:"variables"`
}

// Registry holds the committed path variables and persists them as YAML
type Registry struct {
	path string

	mu   sync.RWMutex
	vars map[string]string
}

// LoadRegistry reads the registry at path. A missing file yields an empty
// registry that is created on Save.
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, vars: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, errors.NewFileError("error reading variables", path, errors.FileAccessDenied, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewFileError("error parsing variables", path, errors.InvalidConfig, err)
	}
	for name, value := range file.Variables {
		r.vars[name] = value
	}
	return r, nil
}

// Path returns the file backing the registry
func (r *Registry) Path() string {
	return r.path
}

// Names returns every variable name, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamesExcept returns every name other than exclude
func (r *Registry) NamesExcept(exclude string) []string {
	names := r.Names()
	out := names[:0]
	for _, name := range names {
		if name != exclude {
			out = append(out, name)
		}
	}
	return out
}

// Get returns the value of name
func (r *Registry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.vars[name]
	return value, ok
}

// Set stores v, replacing any variable of the same name
func (r *Registry) Set(v Variable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vars[v.Name] = v.Value
}

// Rename stores v and removes oldName when it differs from v.Name
func (r *Registry) Rename(oldName string, v Variable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if oldName != "" && oldName != v.Name {
		delete(r.vars, oldName)
	}
	r.vars[v.Name] = v.Value
}

// Remove deletes name and reports whether it existed
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vars[name]; !ok {
		return false
	}
	delete(r.vars, name)
	return true
}

// Save writes the registry, creating parent directories as needed
func (r *Registry) Save() error {
	r.mu.RLock()
	file := registryFile{Variables: make(map[string]string, len(r.vars))}
	for name, value := range r.vars {
		file.Variables[name] = value
	}
	r.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create variables directory: %w", err)
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return errors.NewFileError("failed to write variables", r.path, errors.FileAccessDenied, err)
	}
	return nil
}

// Resolve expands a leading variable segment: with FOO=/data, "FOO/x"
// becomes "/data/x". Absolute paths and paths whose first segment is not a
// variable are returned unchanged.
func (r *Registry) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	slashed := filepath.ToSlash(path)
	first, rest, _ := strings.Cut(slashed, "/")

	value, ok := r.Get(first)
	if !ok {
		return path
	}
	if rest == "" {
		return value
	}
	return filepath.Join(value, filepath.FromSlash(rest))
}
