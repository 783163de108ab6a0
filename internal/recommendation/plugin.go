// Package recommendation is the news recommendations plugin: a locked "recommendation" record
// type with source and URL fields, the block that edits them, and a sidebar widget listing the
// most recent recommendations.
package recommendation

import (
	"context"
	"io"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"newsrecs/app/internal/blocks"
	"newsrecs/app/internal/content"
	"newsrecs/app/internal/hooks"
	applog "newsrecs/app/internal/log"
	"newsrecs/app/internal/theme"
	"newsrecs/app/internal/widget"
)

const (
	TextDomain = "news-recommendations"

	TypeName  = "recommendation"
	SourceKey = "_recommendation_source"
	URLKey    = "_recommendation_url"

	BlockName    = "news-recommendations/recommendation"
	AssetHandle  = "news-recommendations"
	AssetVersion = "20181021"

	WidgetIDBase = "news-recommendations"

	QueryArgsHook    = "news-recommendations.widget_query_args"
	TemplatePartHook = "news-recommendations.widget_template_part"

	// ScoperPriority runs the asset scoper before the core enqueuer at hooks.DefaultPriority.
	ScoperPriority = 8
)

// Capabilities tells the plugin which optional host features are available.
type Capabilities interface {
	BlockEditor() bool
	ScriptTranslations() bool
}

// StaticCapabilities is a fixed capability set.
type StaticCapabilities struct {
	Editor       bool
	Translations bool
}

// BlockEditor reports whether block editing is available.
func (c StaticCapabilities) BlockEditor() bool { return c.Editor }

// ScriptTranslations reports whether editor scripts can receive translations.
func (c StaticCapabilities) ScriptTranslations() bool { return c.Translations }

// Translator maps message keys to localized strings.
type Translator interface {
	T(key string) string
	X(key, context string) string
}

// Querier runs record queries for the widget.
type Querier interface {
	Query(ctx context.Context, q content.Query) (*content.Loop, error)
}

// PartRenderer renders template fragments.
type PartRenderer interface {
	RenderPart(ctx context.Context, w io.Writer, part theme.Part) (bool, error)
}

// Host is everything the plugin registers itself with.
type Host struct {
	Types      *content.TypeRegistry
	Meta       *content.MetaRegistry
	Permalinks *content.Permalinks
	Editor     *blocks.Editor
	Widgets    *widget.Registry
	Store      Querier
	Theme      PartRenderer
}

// Plugin wires the recommendation features into a Host.
type Plugin struct {
	caps       Capabilities
	translator Translator
	logger     *logrus.Entry

	queryArgs    *hooks.FilterChain[content.Query, widget.Settings]
	templatePart *hooks.FilterChain[theme.Part, widget.Settings]

	widget *Widget

	mu         sync.Mutex
	registered bool
}

// New returns an unregistered plugin. A nil translator leaves every string untranslated.
func New(caps Capabilities, translator Translator, logger *logrus.Logger) *Plugin {
	if caps == nil {
		caps = StaticCapabilities{}
	}
	if translator == nil {
		translator = identityTranslator{}
	}
	return &Plugin{
		caps:         caps,
		translator:   translator,
		logger:       applog.Component(logger, "recommendation"),
		queryArgs:    hooks.NewFilterChain[content.Query, widget.Settings](QueryArgsHook),
		templatePart: hooks.NewFilterChain[theme.Part, widget.Settings](TemplatePartHook),
	}
}

// QueryArgs exposes the filter applied to the widget query before it runs.
func (p *Plugin) QueryArgs() *hooks.FilterChain[content.Query, widget.Settings] {
	return p.queryArgs
}

// TemplatePart exposes the filter choosing the fragment each widget item is rendered with.
func (p *Plugin) TemplatePart() *hooks.FilterChain[theme.Part, widget.Settings] {
	return p.templatePart
}

// Widget returns the registered widget, or nil before Register.
func (p *Plugin) Widget() *Widget {
	return p.widget
}

// Register runs every registrar. Block editing pieces are skipped when the host has no block
// editor. Once Register has succeeded, later calls do nothing.
func (p *Plugin) Register(host Host) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.registered {
		return nil
	}

	if host.Types == nil || host.Meta == nil {
		return eris.New("type and meta registries are required")
	}

	if err := p.registerType(host.Types); err != nil {
		return err
	}
	p.registerFields(host.Meta)

	if host.Permalinks != nil {
		host.Permalinks.Filter().Add(hooks.DefaultPriority, RewritePermalink)
	}

	if host.Editor != nil && p.caps.BlockEditor() {
		if err := p.registerBlock(host.Editor); err != nil {
			return err
		}
		p.registerAssets(host.Editor.Assets())
		host.Editor.AllowedFilter().Add(hooks.DefaultPriority, RestrictAllowedBlocks)
		host.Editor.Enqueue().Add(ScoperPriority, ScopeEditorAssets)
	} else {
		p.logger.Debug("block editor unavailable, skipping block registration")
	}

	if host.Widgets != nil {
		if host.Store == nil || host.Theme == nil {
			return eris.New("store and theme are required to register the widget")
		}
		p.widget = newWidget(widgetOptions{
			store:        host.Store,
			theme:        host.Theme,
			title:        host.Widgets.TitleFilter(),
			queryArgs:    p.queryArgs,
			templatePart: p.templatePart,
			translator:   p.translator,
		})
		if err := host.Widgets.Register(p.widget); err != nil {
			return eris.Wrap(err, "registering recommendations widget")
		}
	}

	p.registered = true
	p.logger.WithFields(logrus.Fields{
		"block_editor":        p.caps.BlockEditor(),
		"script_translations": p.caps.ScriptTranslations(),
	}).Info("news recommendations registered")
	return nil
}

type identityTranslator struct{}

func (identityTranslator) T(key string) string { return key }

func (identityTranslator) X(key, _ string) string { return key }
