// Package handlers runs commands through lazily loaded handlers. Handlers
// are declared in configuration and only instantiated on first real use.
package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"workbench/internal/config"
	"workbench/internal/errors"
)

// Handler executes a command
type Handler interface {
	Execute(ctx context.Context, param interface{}) (interface{}, error)
	Attributes() map[string]interface{}
}

// Descriptor declares a handler without loading it
type Descriptor struct {
	CommandID  string
	Priority   int
	Class      string
	Context    string // empty means always active
	Attributes map[string]string
}

// DescriptorFromConfig converts a configured handler declaration
func DescriptorFromConfig(d config.HandlerDecl) Descriptor {
	attrs := make(map[string]string, len(d.Attributes))
	for k, v := range d.Attributes {
		attrs[k] = v
	}
	return Descriptor{
		CommandID:  d.CommandID,
		Priority:   d.Priority,
		Class:      d.Class,
		Context:    d.Context,
		Attributes: attrs,
	}
}

// Factory instantiates the handler described by d
type Factory func(d Descriptor) (Handler, error)

// Registry maps handler class names to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for class
func (r *Registry) Register(class string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[class]; exists {
		return fmt.Errorf("handler class %q already registered", class)
	}
	r.factories[class] = f
	return nil
}

// Classes returns the registered class names, sorted
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	classes := make([]string, 0, len(r.factories))
	for c := range r.factories {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

// Create instantiates the handler for d
func (r *Registry) Create(d Descriptor) (Handler, error) {
	r.mu.RLock()
	f, ok := r.factories[d.Class]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewHandlerError(fmt.Sprintf("unknown handler class %q", d.Class), d.CommandID, errors.HandlerLoadFailed, nil)
	}
	h, err := f(d)
	if err != nil {
		return nil, errors.NewHandlerError("handler could not be created", d.CommandID, errors.HandlerLoadFailed, err)
	}
	if h == nil {
		return nil, errors.NewHandlerError("handler factory returned nothing", d.CommandID, errors.HandlerLoadFailed, nil)
	}
	return h, nil
}

// EchoHandler returns its parameter along with the declared attributes
type EchoHandler struct {
	attrs map[string]interface{}
}

// NewEchoHandler is a Factory for EchoHandler
func NewEchoHandler(d Descriptor) (Handler, error) {
	attrs := make(map[string]interface{}, len(d.Attributes)+2)
	for k, v := range d.Attributes {
		attrs[k] = v
	}
	attrs[AttributeID] = d.CommandID
	attrs[AttributePriority] = d.Priority
	return &EchoHandler{attrs: attrs}, nil
}

func (h *EchoHandler) Execute(ctx context.Context, param interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if prefix, ok := h.attrs["prefix"].(string); ok && param != nil {
		return prefix + fmt.Sprint(param), nil
	}
	return param, nil
}

func (h *EchoHandler) Attributes() map[string]interface{} {
	return h.attrs
}
