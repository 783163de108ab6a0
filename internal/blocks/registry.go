package blocks

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"newsrecs/app/internal/content"
)

// Registry holds block types in registration order.
type Registry struct {
	mu    sync.RWMutex
	types map[string]BlockType
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]BlockType)}
}

// Register adds a block type. Names must be namespaced ("namespace/name").
func (r *Registry) Register(block BlockType) error {
	name := strings.TrimSpace(block.Name)
	if name == "" {
		return eris.New("block name is required")
	}
	if ns, rest, ok := strings.Cut(name, "/"); !ok || ns == "" || rest == "" {
		return eris.Errorf("block name %q must include a namespace", name)
	}
	block.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; exists {
		return eris.Wrapf(ErrAlreadyRegistered, "registering %s", name)
	}

	r.types[name] = block.clone()
	r.order = append(r.order, name)
	return nil
}

// Unregister removes a block type and returns what was registered under the name.
func (r *Registry) Unregister(name string) (BlockType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	block, ok := r.types[name]
	if !ok {
		return BlockType{}, false
	}

	delete(r.types, name)
	for i, existing := range r.order {
		if existing == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return block, true
}

// IsRegistered reports whether name is registered.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Get returns the named block type.
func (r *Registry) Get(name string) (BlockType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	block, ok := r.types[name]
	if !ok {
		return BlockType{}, false
	}
	return block.clone(), true
}

// All lists the registered block types in registration order.
func (r *Registry) All() []BlockType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]BlockType, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name].clone())
	}
	return out
}

// Clone copies the registry so a caller can add and remove types without touching the original.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clone := &Registry{
		types: make(map[string]BlockType, len(r.types)),
		order: append([]string(nil), r.order...),
	}
	for name, block := range r.types {
		clone.types[name] = block.clone()
	}
	return clone
}

// RenderContent writes the front-end markup of the record's blocks. Blocks that are not
// registered, or that save nothing, contribute no output.
func (r *Registry) RenderContent(ctx context.Context, w io.Writer, record content.Record) error {
	for _, name := range record.Blocks {
		block, ok := r.Get(name)
		if !ok || block.Render == nil {
			continue
		}
		if err := block.Render(ctx, w, record); err != nil {
			return eris.Wrapf(err, "rendering block %s", name)
		}
	}
	return nil
}
