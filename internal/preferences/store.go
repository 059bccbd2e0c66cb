// Package preferences provides a string-backed preference store with a
// defaults layer and change listeners, and the general workbench page that
// edits a fixed set of options in it.
package preferences

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// ChangeEvent reports a preference change. Old and New hold the typed
// values that were set.
type ChangeEvent struct {
	Key string
	Old interface{}
	New interface{}
}

// Listener receives change events
type Listener func(ChangeEvent)

// Store is a key/value preference store. Values that were never set fall
// back to their defaults.
type Store interface {
	Bool(key string) bool
	DefaultBool(key string) bool
	Int(key string) int
	DefaultInt(key string) int
	String(key string) string
	DefaultString(key string) string

	SetBool(key string, value bool)
	SetInt(key string, value int)
	SetString(key string, value string)
	SetDefault(key string, value interface{})
	SetToDefault(key string)

	Contains(key string) bool
	IsDefault(key string) bool
	Keys() []string

	AddListener(l Listener) (remove func())
	Fire(event ChangeEvent)
}

// MemoryStore is an in-memory Store safe for concurrent use
type MemoryStore struct {
	mu        sync.RWMutex
	values    map[string]string
	defaults  map[string]string
	listeners map[int]Listener
	nextID    int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:    make(map[string]string),
		defaults:  make(map[string]string),
		listeners: make(map[int]Listener),
	}
}

func (s *MemoryStore) lookup(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return s.defaults[key]
}

func (s *MemoryStore) lookupDefault(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults[key]
}

func (s *MemoryStore) Bool(key string) bool { return parseBool(s.lookup(key)) }
func (s *MemoryStore) DefaultBool(key string) bool { return parseBool(s.lookupDefault(key)) }
func (s *MemoryStore) Int(key string) int { return parseInt(s.lookup(key)) }
func (s *MemoryStore) DefaultInt(key string) int { return parseInt(s.lookupDefault(key)) }
func (s *MemoryStore) String(key string) string { return s.lookup(key) }
func (s *MemoryStore) DefaultString(key string) string { return s.lookupDefault(key) }

func (s *MemoryStore) SetBool(key string, value bool) {
	old := s.Bool(key)
	if s.set(key, strconv.FormatBool(value)) {
		s.Fire(ChangeEvent{Key: key, Old: old, New: value})
	}
}

func (s *MemoryStore) SetInt(key string, value int) {
	old := s.Int(key)
	if s.set(key, strconv.Itoa(value)) {
		s.Fire(ChangeEvent{Key: key, Old: old, New: value})
	}
}

func (s *MemoryStore) SetString(key string, value string) {
	old := s.String(key)
	if s.set(key, value) {
		s.Fire(ChangeEvent{Key: key, Old: old, New: value})
	}
}

// set stores raw and reports whether the effective value changed. A value
// equal to its default is dropped from the explicit layer.
func (s *MemoryStore) set(key, raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, explicit := s.values[key]
	if !explicit {
		old = s.defaults[key]
	}
	if def, ok := s.defaults[key]; ok && def == raw {
		delete(s.values, key)
	} else {
		s.values[key] = raw
	}
	return old != raw
}

// SetDefault records the default for key. Accepts bool, int and string.
func (s *MemoryStore) SetDefault(key string, value interface{}) {
	var raw string
	switch v := value.(type) {
	case bool:
		raw = strconv.FormatBool(v)
	case int:
		raw = strconv.Itoa(v)
	case string:
		raw = v
	default:
		raw = fmt.Sprint(v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[key] = raw
}

// SetToDefault drops the explicit value of key
func (s *MemoryStore) SetToDefault(key string) {
	s.mu.Lock()
	old, explicit := s.values[key]
	def := s.defaults[key]
	delete(s.values, key)
	s.mu.Unlock()
	if explicit && old != def {
		s.Fire(ChangeEvent{Key: key, Old: old, New: def})
	}
}

// Contains reports whether key has a value or a default
func (s *MemoryStore) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, explicit := s.values[key]
	_, def := s.defaults[key]
	return explicit || def
}

// IsDefault reports whether key currently uses its default
func (s *MemoryStore) IsDefault(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, explicit := s.values[key]
	return !explicit
}

// Keys returns every key with a value or a default, sorted
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool, len(s.defaults)+len(s.values))
	for k := range s.defaults {
		seen[k] = true
	}
	for k := range s.values {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the explicitly set values, suitable for persisting
func (s *MemoryStore) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Load sets raw values without firing events
func (s *MemoryStore) Load(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
}

// AddListener registers l and returns a function that removes it
func (s *MemoryStore) AddListener(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Fire delivers event to every listener in registration order
func (s *MemoryStore) Fire(event ChangeEvent) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}

func parseInt(raw string) int {
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return i
}
