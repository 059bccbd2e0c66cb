package handlers

import (
	"context"
	"sync"

	"workbench/internal/errors"
	"workbench/internal/log"
)

// Attribute names a proxy answers without loading its handler
const (
	AttributeID       = "id"
	AttributePriority = "priority"
)

type loadState int

const (
	statePending loadState = iota
	stateLoaded
	stateFailed
)

// Proxy stands in for a declared handler. The handler is created on the
// first call that needs it; a failed load is final and later calls return
// the same error.
type Proxy struct {
	desc     Descriptor
	registry *Registry
	logger   log.Logging

	mu      sync.Mutex
	state   loadState
	handler Handler
	loadErr error
}

// NewProxy creates a proxy for d whose handler will come from registry
func NewProxy(d Descriptor, registry *Registry) *Proxy {
	return &Proxy{
		desc:     d,
		registry: registry,
		logger:   log.Default().With(log.F("command_id", d.CommandID)),
	}
}

// ID returns the command identifier without loading
func (p *Proxy) ID() string {
	return p.desc.CommandID
}

// Priority returns the declared priority without loading
func (p *Proxy) Priority() int {
	return p.desc.Priority
}

// Context returns the context the handler is bound to
func (p *Proxy) Context() string {
	return p.desc.Context
}

// Loaded reports whether the handler has been created
func (p *Proxy) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateLoaded
}

// load creates the handler once
func (p *Proxy) load() (Handler, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateLoaded:
		return p.handler, nil
	case stateFailed:
		return nil, p.loadErr
	}

	h, err := p.registry.Create(p.desc)
	if err != nil {
		p.state = stateFailed
		p.loadErr = err
		p.logger.WithError(err).Error("The proxied handler could not be loaded")
		return nil, err
	}
	p.state = stateLoaded
	p.handler = h
	p.logger.With(log.F("class", p.desc.Class)).Debug("Handler loaded")
	return h, nil
}

// Execute loads the handler if needed and runs it
func (p *Proxy) Execute(ctx context.Context, param interface{}) (interface{}, error) {
	h, err := p.load()
	if err != nil {
		return nil, err
	}
	result, err := h.Execute(ctx, param)
	if err != nil {
		return nil, errors.NewHandlerError("handler failed", p.desc.CommandID, errors.HandlerExecutionFailed, err)
	}
	return result, nil
}

// Attributes loads the handler and returns its attributes. A handler that
// cannot be loaded has none.
func (p *Proxy) Attributes() (map[string]interface{}, error) {
	h, err := p.load()
	if err != nil {
		return map[string]interface{}{}, err
	}
	return h.Attributes(), nil
}

// AttributeValue answers id and priority from the declaration while the
// handler is not loaded. Any other attribute loads it.
func (p *Proxy) AttributeValue(name string) (interface{}, error) {
	if !p.Loaded() {
		switch name {
		case AttributeID:
			return p.desc.CommandID, nil
		case AttributePriority:
			return p.desc.Priority, nil
		}
	}
	attrs, err := p.Attributes()
	return attrs[name], err
}
