package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"workbench/internal/config"
	"workbench/internal/errors"
	"workbench/internal/log"
)

// Service picks the active handler for a command
type Service struct {
	mu      sync.RWMutex
	proxies map[string][]*Proxy
	logger  log.Logging
}

// NewService creates an empty service
func NewService() *Service {
	return &Service{
		proxies: make(map[string][]*Proxy),
		logger:  log.Default(),
	}
}

// FromConfig creates a service with a proxy per declared handler
func FromConfig(decls []config.HandlerDecl, registry *Registry) *Service {
	s := NewService()
	for _, d := range decls {
		s.Add(NewProxy(DescriptorFromConfig(d), registry))
	}
	return s
}

// Add registers a proxy
func (s *Service) Add(p *Proxy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proxies[p.ID()] = append(s.proxies[p.ID()], p)
}

// Commands returns the ids of every command with a handler, sorted
func (s *Service) Commands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.proxies))
	for id := range s.proxies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Proxies returns the proxies registered for commandID
func (s *Service) Proxies(commandID string) []*Proxy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Proxy(nil), s.proxies[commandID]...)
}

// Resolve returns the highest priority proxy for commandID whose context is
// active. At equal priority a context-bound handler beats an unbound one,
// then the earlier registration wins. No proxy is loaded.
func (s *Service) Resolve(commandID string, activeContexts []string) (*Proxy, error) {
	active := make(map[string]bool, len(activeContexts))
	for _, c := range activeContexts {
		active[c] = true
	}

	var best *Proxy
	for _, p := range s.Proxies(commandID) {
		if p.Context() != "" && !active[p.Context()] {
			continue
		}
		if best == nil || p.Priority() > best.Priority() ||
			(p.Priority() == best.Priority() && best.Context() == "" && p.Context() != "") {
			best = p
		}
	}
	if best == nil {
		return nil, errors.NewNotDefinedError(fmt.Sprintf("no active handler for command %q", commandID))
	}
	return best, nil
}

// Execute resolves commandID and runs its handler
func (s *Service) Execute(ctx context.Context, commandID string, activeContexts []string, param interface{}) (interface{}, error) {
	p, err := s.Resolve(commandID, activeContexts)
	if err != nil {
		return nil, err
	}
	s.logger.With(log.F("command_id", commandID), log.F("priority", p.Priority())).Debug("Executing command")
	return p.Execute(ctx, param)
}
