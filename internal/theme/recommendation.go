package theme

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/russross/blackfriday/v2"

	"newsrecs/app/internal/content"
	"newsrecs/app/internal/sanitize"
)

// RecommendationPart is the fragment the default theme ships for widget list items.
const RecommendationPart = "templates/widget-recommendation"

// Linker computes the permalink of a record.
type Linker interface {
	Link(ctx context.Context, record content.Record) string
}

// RecommendationFragment renders the current record as a list item: linked title, source and
// markdown body.
func RecommendationFragment(links Linker, sourceKey string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		record, ok := content.CurrentRecord(ctx)
		if !ok {
			return nil
		}

		href := ""
		if links != nil {
			href = links.Link(ctx, record)
		}

		var b strings.Builder
		fmt.Fprintf(&b, `<article class="recommendation recommendation-%d">`, record.ID)
		if href != "" {
			fmt.Fprintf(&b, `<h5 class="recommendation-title"><a href="%s" rel="noopener" target="_blank">%s</a></h5>`,
				templ.EscapeString(string(templ.URL(href))), templ.EscapeString(record.Title))
		} else {
			fmt.Fprintf(&b, `<h5 class="recommendation-title">%s</h5>`, templ.EscapeString(record.Title))
		}
		if source := record.MetaValue(sourceKey); source != "" {
			fmt.Fprintf(&b, `<span class="recommendation-source">%s</span>`, templ.EscapeString(source))
		}
		if body := strings.TrimSpace(record.Body); body != "" {
			b.WriteString(`<div class="recommendation-body">`)
			b.Write(renderMarkdown(body))
			b.WriteString(`</div>`)
		}
		b.WriteString(`</article>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// renderMarkdown converts the body to HTML. Raw HTML in the body is stripped first and links
// with unsafe schemes such as javascript: lose their href.
func renderMarkdown(body string) []byte {
	clean := sanitize.Paragraphs(body)
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.Safelink |
			blackfriday.NofollowLinks | blackfriday.NoreferrerLinks,
	})
	return blackfriday.Run([]byte(clean),
		blackfriday.WithRenderer(renderer),
		blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.Autolink))
}
