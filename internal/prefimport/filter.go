package prefimport

import (
	"fmt"
	"sort"

	"workbench/internal/config"

	"github.com/gobwas/glob"
)

// nodeRule matches node names and, optionally, keys within them
type nodeRule struct {
	pattern string
	node    glob.Glob
	keys    []glob.Glob // empty matches every key
}

// Filter selects preferences by scope, node and key patterns
type Filter struct {
	ID     string
	Scopes []string
	rules  []nodeRule
}

// NewFilter compiles a filter. nodes maps node globs to key globs; a node
// with no key globs selects all of its keys.
func NewFilter(id string, scopes []string, nodes map[string][]string) (*Filter, error) {
	f := &Filter{ID: id, Scopes: append([]string(nil), scopes...)}

	patterns := make([]string, 0, len(nodes))
	for p := range nodes {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid node pattern %q in filter %s: %w", p, id, err)
		}
		rule := nodeRule{pattern: p, node: g}
		for _, kp := range nodes[p] {
			kg, err := glob.Compile(kp)
			if err != nil {
				return nil, fmt.Errorf("invalid key pattern %q in filter %s: %w", kp, id, err)
			}
			rule.keys = append(rule.keys, kg)
		}
		f.rules = append(f.rules, rule)
	}
	return f, nil
}

func (f *Filter) coversScope(scope string) bool {
	for _, s := range f.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Selects reports whether the filter takes scope/node/key
func (f *Filter) Selects(scope, node, key string) bool {
	if !f.coversScope(scope) {
		return false
	}
	for _, rule := range f.rules {
		if !rule.node.Match(node) {
			continue
		}
		if len(rule.keys) == 0 {
			return true
		}
		for _, kg := range rule.keys {
			if kg.Match(key) {
				return true
			}
		}
	}
	return false
}

// Matches reports whether snap holds at least one value the filter selects
func (f *Filter) Matches(snap *Snapshot) bool {
	found := false
	f.each(snap, func(string, string, string, string) bool {
		found = true
		return false
	})
	return found
}

// Select returns the part of snap the filter selects
func (f *Filter) Select(snap *Snapshot) *Snapshot {
	out := NewSnapshot()
	out.Version = snap.Version
	f.each(snap, func(scope, node, key, value string) bool {
		out.Set(scope, node, key, value)
		return true
	})
	return out
}

// each visits the selected values until visit returns false
func (f *Filter) each(snap *Snapshot, visit func(scope, node, key, value string) bool) {
	for _, scope := range snap.Scopes() {
		if !f.coversScope(scope) {
			continue
		}
		for _, node := range snap.Nodes(scope) {
			for _, key := range snap.Keys(scope, node) {
				if !f.Selects(scope, node, key) {
					continue
				}
				value, _ := snap.Get(scope, node, key)
				if !visit(scope, node, key, value) {
					return
				}
			}
		}
	}
}

// TransferElement is one entry of the import page: a named filter
type TransferElement struct {
	ID          string
	Name        string
	Description string
	Filter      *Filter
}

// ElementsFromConfig builds transfer elements from configured filters
func ElementsFromConfig(decls []config.FilterDecl) ([]TransferElement, error) {
	elements := make([]TransferElement, 0, len(decls))
	for _, d := range decls {
		f, err := NewFilter(d.ID, d.Scopes, d.Nodes)
		if err != nil {
			return nil, err
		}
		name := d.Name
		if name == "" {
			name = d.ID
		}
		elements = append(elements, TransferElement{
			ID:          d.ID,
			Name:        name,
			Description: d.Description,
			Filter:      f,
		})
	}
	return elements, nil
}
