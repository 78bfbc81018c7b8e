package tools

import (
	"context"
	"fmt"
	"sync"
)

// Handler executes a tool with a plain-text argument.
type Handler func(ctx context.Context, arg string) (string, error)

// Definition describes a tool to routing code and API consumers.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry holds named tools.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	defs     []Definition
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a tool. Re-registering a name replaces its handler.
func (r *Registry) Register(def Definition, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[def.Name]; !exists {
		r.defs = append(r.defs, def)
	}
	r.handlers[def.Name] = h
}

// Definitions lists every registered tool.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Execute runs a named tool.
func (r *Registry) Execute(ctx context.Context, name, arg string) (string, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return h(ctx, arg)
}
