package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><link rel="icon" href="/static/favicon.svg"></head><body><main>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `</main><footer><p>%s</p></footer></body></html>`, templ.EscapeString(DefaultFooterNote))
		return err
	})
}

func pageTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return SiteName
	}
	return title + " • " + SiteName
}

// ErrorPage renders a status page.
func ErrorPage(data ErrorPageData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="error"><h1>%s</h1><p>%s</p></section>`,
			templ.EscapeString(data.StatusLabel), templ.EscapeString(data.Message))
		return err
	})
	return layout(pageTitle(data.Title), body)
}

// EditorPage renders the editor screen: the enqueued assets, the allow-list and one form per
// block in the record.
func EditorPage(data EditorPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		for _, style := range data.Styles {
			fmt.Fprintf(&b, `<link rel="stylesheet" id="%s-css" href="%s">`,
				templ.EscapeString(style.Handle), templ.EscapeString(style.URL))
		}
		fmt.Fprintf(&b, `<h1>%s</h1>`, templ.EscapeString(data.RecordTitle))

		b.WriteString(`<p class="allowed-blocks">`)
		if data.AllBlocks {
			b.WriteString(`All blocks allowed`)
		} else {
			b.WriteString(`Allowed blocks: `)
			for i, name := range data.AllowedBlocks {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, `<code>%s</code>`, templ.EscapeString(name))
			}
		}
		b.WriteString(`</p>`)

		fmt.Fprintf(&b, `<form class="editor" data-record="%d" data-record-type="%s">`,
			data.RecordID, templ.EscapeString(data.RecordType))
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		for _, form := range data.Forms {
			if err := form.Render(ctx, w); err != nil {
				return err
			}
		}

		b.Reset()
		b.WriteString(`</form>`)
		for _, script := range data.Scripts {
			if script.Translations != "" {
				// JSON inside a script element only needs "</" broken up.
				fmt.Fprintf(&b, `<script type="application/json" id="%s-translations">%s</script>`,
					templ.EscapeString(script.Handle), strings.ReplaceAll(script.Translations, "</", `<\/`))
			}
			fmt.Fprintf(&b, `<script id="%s-js" src="%s"></script>`,
				templ.EscapeString(script.Handle), templ.EscapeString(script.URL))
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout(pageTitle(data.Title), body)
}

// WidgetFormPage renders the settings form of a widget instance.
func WidgetFormPage(data WidgetFormPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<h1>%s</h1><form class="widget-settings" method="post" action="/admin/widgets/%d" data-sidebar="%s">`,
			templ.EscapeString(data.WidgetName), data.InstanceID, templ.EscapeString(data.Sidebar)); err != nil {
			return err
		}
		if data.Form != nil {
			if err := data.Form.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<button type="submit">Save</button></form>`)
		return err
	})
	return layout(pageTitle(data.Title), body)
}

// RecordPage renders a record on its own.
func RecordPage(data RecordPageData) templ.Component {
	body := data.Article
	if body == nil {
		body = RawHTML("")
	}
	return layout(pageTitle(data.Title), body)
}
