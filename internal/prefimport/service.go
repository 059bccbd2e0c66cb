package prefimport

import (
	"io"
	"sort"
	"sync"

	"workbench/internal/errors"
	"workbench/internal/log"
	"workbench/internal/preferences"
)

// Service reads snapshots, matches filters and applies them
type Service interface {
	Read(r io.Reader, format Format) (*Snapshot, error)
	Matches(snap *Snapshot, filters []*Filter) ([]*Filter, error)
	Apply(snap *Snapshot, filters []*Filter) error
}

// PlatformService applies snapshots into one preference store per node
type PlatformService struct {
	mu     sync.Mutex
	nodes  map[string]preferences.Store
	logger log.Logging
}

var _ Service = (*PlatformService)(nil)

// NewPlatformService creates a service with no bound nodes
func NewPlatformService() *PlatformService {
	return &PlatformService{
		nodes:  make(map[string]preferences.Store),
		logger: log.Default(),
	}
}

func nodePath(scope, node string) string {
	return scope + "/" + node
}

// Bind routes values for scope/node into store
func (s *PlatformService) Bind(scope, node string, store preferences.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[nodePath(scope, node)] = store
}

// Node returns the store of scope/node, creating an empty one if needed
func (s *PlatformService) Node(scope, node string) preferences.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := nodePath(scope, node)
	store, ok := s.nodes[path]
	if !ok {
		store = preferences.NewMemoryStore()
		s.nodes[path] = store
	}
	return store
}

// NodePaths returns every known scope/node path, sorted
func (s *PlatformService) NodePaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.nodes))
	for p := range s.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (s *PlatformService) Read(r io.Reader, format Format) (*Snapshot, error) {
	return ReadSnapshot(r, format)
}

// Matches returns the filters that select something in snap, in the order
// they were given
func (s *PlatformService) Matches(snap *Snapshot, filters []*Filter) ([]*Filter, error) {
	if snap == nil {
		return nil, errors.NewConfigError("no preferences to match", "snapshot", errors.PreferenceImportFailed, nil)
	}
	var matched []*Filter
	for _, f := range filters {
		if f != nil && f.Matches(snap) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// Apply writes every value selected by filters into the node stores
func (s *PlatformService) Apply(snap *Snapshot, filters []*Filter) error {
	if snap == nil {
		return errors.NewConfigError("no preferences to apply", "snapshot", errors.PreferenceImportFailed, nil)
	}
	applied := 0
	for _, f := range filters {
		if f == nil {
			continue
		}
		selected := f.Select(snap)
		for _, scope := range selected.Scopes() {
			for _, node := range selected.Nodes(scope) {
				store := s.Node(scope, node)
				for _, key := range selected.Keys(scope, node) {
					value, _ := selected.Get(scope, node, key)
					store.SetString(key, value)
					applied++
				}
			}
		}
	}
	s.logger.With(log.F("snapshot", snap.ID), log.F("values", applied)).Debug("Preferences applied")
	return nil
}
