package recommendation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/rotisserie/eris"

	"newsrecs/app/internal/content"
	"newsrecs/app/internal/hooks"
	"newsrecs/app/internal/sanitize"
	"newsrecs/app/internal/theme"
	"newsrecs/app/internal/widget"
)

const (
	settingTitle = "title"
	settingCount = "number_of_items"

	defaultCount = 10
)

// DefaultTemplatePart is the fragment each widget item is rendered with unless filtered.
var DefaultTemplatePart = theme.Part{Slug: "templates/widget", Name: "recommendation"}

// Widget lists the most recent recommendations in a sidebar.
type Widget struct {
	store        Querier
	theme        PartRenderer
	title        *hooks.FilterChain[string, widget.TitleArgs]
	queryArgs    *hooks.FilterChain[content.Query, widget.Settings]
	templatePart *hooks.FilterChain[theme.Part, widget.Settings]
	translator   Translator
}

type widgetOptions struct {
	store        Querier
	theme        PartRenderer
	title        *hooks.FilterChain[string, widget.TitleArgs]
	queryArgs    *hooks.FilterChain[content.Query, widget.Settings]
	templatePart *hooks.FilterChain[theme.Part, widget.Settings]
	translator   Translator
}

func newWidget(opts widgetOptions) *Widget {
	w := &Widget{
		store:        opts.store,
		theme:        opts.theme,
		title:        opts.title,
		queryArgs:    opts.queryArgs,
		templatePart: opts.templatePart,
		translator:   opts.translator,
	}
	if w.title == nil {
		w.title = hooks.NewFilterChain[string, widget.TitleArgs](widget.TitleHook)
	}
	if w.queryArgs == nil {
		w.queryArgs = hooks.NewFilterChain[content.Query, widget.Settings](QueryArgsHook)
	}
	if w.templatePart == nil {
		w.templatePart = hooks.NewFilterChain[theme.Part, widget.Settings](TemplatePartHook)
	}
	if w.translator == nil {
		w.translator = identityTranslator{}
	}
	return w
}

// IDBase implements widget.Widget.
func (w *Widget) IDBase() string { return WidgetIDBase }

// Name implements widget.Widget.
func (w *Widget) Name() string { return w.translator.T("News Recommendations") }

// Defaults implements widget.Widget.
func (w *Widget) Defaults() widget.Settings {
	return widget.Settings{
		settingTitle: w.translator.X("Recommendations", "default widget title"),
		settingCount: strconv.Itoa(defaultCount),
	}
}

// Update stores both settings as plain text. Numbers are only interpreted at render time.
func (w *Widget) Update(submitted, _ widget.Settings) widget.Settings {
	return widget.Settings{
		settingTitle: sanitize.TextField(submitted[settingTitle]),
		settingCount: sanitize.TextField(submitted[settingCount]),
	}
}

// Render lists up to number_of_items recommendations, newest first. An empty result renders
// nothing, wrapper included.
func (w *Widget) Render(ctx context.Context, out io.Writer, args widget.Args, settings widget.Settings) error {
	query := content.Query{Type: TypeName, PerPage: sanitize.AbsInt(settings[settingCount])}
	query = w.queryArgs.Apply(ctx, query, settings)

	loop, err := w.store.Query(ctx, query)
	if err != nil {
		return eris.Wrap(err, "querying recommendations")
	}
	if !loop.HasRecords() {
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString(args.BeforeWidget)

	// Titles are stored sanitized; filters may add markup on purpose.
	title := w.title.Apply(ctx, settings[settingTitle], widget.TitleArgs{IDBase: WidgetIDBase, Settings: settings})
	if title != "" {
		buf.WriteString(args.BeforeTitle)
		buf.WriteString(title)
		buf.WriteString(args.AfterTitle)
	}

	buf.WriteString(`<div class="widget-content">`)
	part := w.templatePart.Apply(ctx, DefaultTemplatePart, settings)
	err = loop.Each(ctx, func(ctx context.Context, _ content.Record) error {
		_, renderErr := w.theme.RenderPart(ctx, &buf, part)
		return renderErr
	})
	if err != nil {
		return eris.Wrap(err, "rendering recommendation items")
	}
	buf.WriteString(`</div>`)
	buf.WriteString(args.AfterWidget)

	_, err = out.Write(buf.Bytes())
	return err
}

// Form renders the settings form.
func (w *Widget) Form(instanceID uint, settings widget.Settings) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		prefix := fmt.Sprintf("widget-%s-%d", WidgetIDBase, instanceID)
		var b strings.Builder

		fmt.Fprintf(&b, `<form class="widget-settings" data-widget="%s" data-instance="%d">`, WidgetIDBase, instanceID)
		fmt.Fprintf(&b, `<p><label for="%[1]s-title">%[2]s</label><input class="widefat" id="%[1]s-title" name="%[3]s" type="text" value="%[4]s"></p>`,
			prefix,
			templ.EscapeString(w.translator.T("Title")),
			settingTitle,
			templ.EscapeString(settings[settingTitle]),
		)
		fmt.Fprintf(&b, `<p><label for="%[1]s-count">%[2]s</label><input class="tiny-text" id="%[1]s-count" name="%[3]s" type="number" min="1" step="1" value="%[4]s"></p>`,
			prefix,
			templ.EscapeString(w.translator.T("Number of items")),
			settingCount,
			templ.EscapeString(settings[settingCount]),
		)
		fmt.Fprintf(&b, `<p class="help">%s</p>`,
			templ.EscapeString(w.translator.T("Choose the number of recommendations you want to display.")))
		b.WriteString(`</form>`)

		_, err := io.WriteString(out, b.String())
		return err
	})
}
