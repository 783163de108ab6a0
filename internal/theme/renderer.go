// Package theme resolves and renders swappable template fragments.
package theme

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/rotisserie/eris"
)

// Part names a template fragment the way themes look them up: Slug-Name first, then Slug.
type Part struct {
	Slug string
	Name string
}

// Candidates lists the fragment names tried for the part, most specific first.
func (p Part) Candidates() []string {
	slug := strings.TrimSpace(p.Slug)
	if slug == "" {
		return nil
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return []string{slug}
	}
	return []string{slug + "-" + name, slug}
}

// Renderer holds the registered fragments.
type Renderer struct {
	mu        sync.RWMutex
	fragments map[string]templ.Component
}

// NewRenderer returns a renderer without fragments.
func NewRenderer() *Renderer {
	return &Renderer{fragments: make(map[string]templ.Component)}
}

// Register installs or replaces a fragment.
func (r *Renderer) Register(name string, fragment templ.Component) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return eris.New("fragment name is required")
	}
	if fragment == nil {
		return eris.Errorf("fragment %s is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.fragments[name] = fragment
	return nil
}

// Lookup returns the first registered candidate of part.
func (r *Renderer) Lookup(part Part) (string, templ.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, candidate := range part.Candidates() {
		if fragment, ok := r.fragments[candidate]; ok {
			return candidate, fragment, true
		}
	}
	return "", nil, false
}

// RenderPart renders the first registered candidate of part. It reports false, and writes
// nothing, when no candidate is registered.
func (r *Renderer) RenderPart(ctx context.Context, w io.Writer, part Part) (bool, error) {
	name, fragment, ok := r.Lookup(part)
	if !ok {
		return false, nil
	}
	if err := fragment.Render(ctx, w); err != nil {
		return true, eris.Wrapf(err, "rendering fragment %s", name)
	}
	return true, nil
}
