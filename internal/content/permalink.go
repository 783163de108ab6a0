package content

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"newsrecs/app/internal/hooks"
)

// PermalinkHook is the filter applied to every computed permalink.
const PermalinkHook = "post_type_link"

// Permalinks computes the canonical URL of records.
type Permalinks struct {
	siteURL string
	types   *TypeRegistry
	filter  *hooks.FilterChain[string, Record]
}

// NewPermalinks returns a permalink builder rooted at siteURL.
func NewPermalinks(siteURL string, types *TypeRegistry) *Permalinks {
	return &Permalinks{
		siteURL: strings.TrimRight(siteURL, "/"),
		types:   types,
		filter:  hooks.NewFilterChain[string, Record](PermalinkHook),
	}
}

// Filter exposes the permalink filter chain.
func (p *Permalinks) Filter() *hooks.FilterChain[string, Record] {
	return p.filter
}

// Default returns the link before filters: a pretty path for types with rewrites, a query
// string link otherwise.
func (p *Permalinks) Default(record Record) string {
	if rt, ok := p.types.Get(record.Type); ok && rt.Rewrite {
		return fmt.Sprintf("%s/%s/%d/", p.siteURL, url.PathEscape(record.Type), record.ID)
	}

	query := url.Values{}
	query.Set("post_type", record.Type)
	query.Set("p", fmt.Sprintf("%d", record.ID))
	return p.siteURL + "/?" + query.Encode()
}

// Link returns the filtered permalink.
func (p *Permalinks) Link(ctx context.Context, record Record) string {
	return p.filter.Apply(ctx, p.Default(record), record)
}
