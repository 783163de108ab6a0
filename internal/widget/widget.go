// Package widget hosts sidebar widgets: widget types, their persisted instances and the
// sidebars that render them.
package widget

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/rotisserie/eris"

	"newsrecs/app/internal/hooks"
)

// TitleHook filters every widget title before it is printed.
const TitleHook = "widget_title"

var (
	// ErrUnknownWidget is returned for widget id bases that are not registered.
	ErrUnknownWidget = eris.New("widget type not registered")
	// ErrUnknownSidebar is returned for sidebars that are not configured.
	ErrUnknownSidebar = eris.New("sidebar not configured")
	// ErrInstanceNotFound is returned for widget instances that do not exist.
	ErrInstanceNotFound = eris.New("widget instance not found")
)

// Settings are the stored values of one widget instance.
type Settings map[string]string

// Clone copies the settings.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Args is the markup a sidebar wraps around each widget.
type Args struct {
	BeforeWidget string `yaml:"before_widget"`
	AfterWidget  string `yaml:"after_widget"`
	BeforeTitle  string `yaml:"before_title"`
	AfterTitle   string `yaml:"after_title"`
}

// DefaultArgs returns the wrapper markup used when a sidebar does not configure its own.
func DefaultArgs() Args {
	return Args{
		BeforeWidget: `<div class="widget-wrap">`,
		AfterWidget:  `</div></div>`,
		BeforeTitle:  `<h4 class="widgettitle">`,
		AfterTitle:   `</h4>`,
	}
}

// TitleArgs is what title filters see besides the title itself.
type TitleArgs struct {
	IDBase   string
	Settings Settings
}

// Widget is a widget type.
type Widget interface {
	IDBase() string
	Name() string
	Defaults() Settings
	// Update returns the settings to store given the submitted and the previous ones.
	Update(submitted, previous Settings) Settings
	Form(instanceID uint, settings Settings) templ.Component
	Render(ctx context.Context, w io.Writer, args Args, settings Settings) error
}

// Registry holds widget types and the title filter they share.
type Registry struct {
	mu      sync.RWMutex
	widgets map[string]Widget
	title   *hooks.FilterChain[string, TitleArgs]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		widgets: make(map[string]Widget),
		title:   hooks.NewFilterChain[string, TitleArgs](TitleHook),
	}
}

// Register adds a widget type. Registering the same id base twice replaces the first.
func (r *Registry) Register(w Widget) error {
	if w == nil {
		return eris.New("widget is required")
	}
	id := strings.TrimSpace(w.IDBase())
	if id == "" {
		return eris.New("widget id base is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.widgets[id] = w
	return nil
}

// Get returns the widget type with the given id base.
func (r *Registry) Get(idBase string) (Widget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.widgets[idBase]
	return w, ok
}

// All lists the registered widget types ordered by id base.
func (r *Registry) All() []Widget {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Widget, 0, len(r.widgets))
	for _, w := range r.widgets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IDBase() < out[j].IDBase() })
	return out
}

// TitleFilter exposes the widget title filter.
func (r *Registry) TitleFilter() *hooks.FilterChain[string, TitleArgs] {
	return r.title
}
