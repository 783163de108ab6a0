package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"newsrecs/app/internal/content"
	"newsrecs/app/internal/db"
	"newsrecs/app/internal/http/templates"
	"newsrecs/app/internal/recommendation"
	"newsrecs/app/internal/widget"
)

// permalinkInput is the query string form of a default permalink. The mux hands every
// unmatched path to "/", so Resolve keeps the path for the handler to reject.
type permalinkInput struct {
	PostType string `query:"post_type"`
	ID       uint   `query:"p"`

	path string
}

func (i *permalinkInput) Resolve(ctx huma.Context) []error {
	i.path = ctx.URL().Path
	return nil
}

type sidebarInput struct {
	Name string `path:"name"`
}

type healthResponse struct {
	Status int
	Body   struct {
		Status    string `json:"status"`
		Database  string `json:"database"`
		Suggester string `json:"suggester"`
		Editor    string `json:"editor"`
	}
}

func (s *Server) registerPublicRoutes() {
	huma.Get(s.api, "/", s.permalinkHandler, htmlOperation(
		"Home page and default permalinks",
		stdhttp.StatusFound,
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Get(s.api, "/sidebars/{name}", s.sidebarHandler, htmlOperation(
		"Render a sidebar",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

// permalinkHandler serves default permalinks. Records whose filtered link leaves the default
// (recommendations with a story URL) redirect there. Otherwise only records of public types are
// rendered; the rest are reported missing. Without a record it renders the sidebars.
func (s *Server) permalinkHandler(ctx context.Context, input *permalinkInput) (*htmlResponse, error) {
	if input.path != "" && input.path != "/" {
		return s.renderErrorResponse(ctx, stdhttp.StatusNotFound, "We couldn't find that page.")
	}
	if input.ID == 0 {
		return s.homeHandler(ctx)
	}

	fields := logrus.Fields{"record_id": input.ID}
	record, err := s.store.Get(ctx, input.ID)
	if err != nil {
		return s.htmlError(ctx, err, "loading permalink", fields)
	}
	if input.PostType != "" && input.PostType != record.Type {
		return s.htmlError(ctx, eris.Wrapf(content.ErrNotFound, "record %d is a %s", record.ID, record.Type), "loading permalink", fields)
	}

	if link := s.permalinks.Link(ctx, *record); link != s.permalinks.Default(*record) {
		s.metrics.RecordRedirect("external")
		return redirectResponse(link), nil
	}
	if rt, ok := s.store.Types().Get(record.Type); !ok || !rt.Public {
		return s.htmlError(ctx, eris.Wrapf(content.ErrNotFound, "record type %s is not public", record.Type), "loading permalink", fields)
	}
	s.metrics.RecordRedirect("default")

	return s.renderPage(ctx, templates.RecordPage(templates.RecordPageData{
		Title:   record.Title,
		Article: s.articleComponent(*record),
	}), "rendering record page", fields)
}

// homeHandler renders every configured sidebar. Non-public records such as recommendations
// only reach the home page through their widgets.
func (s *Server) homeHandler(ctx context.Context) (*htmlResponse, error) {
	sidebars := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, sidebar := range s.widgets.Sidebars() {
			if err := s.writeSidebar(ctx, w, sidebar.ID); err != nil {
				return err
			}
		}
		return nil
	})

	return s.renderPage(ctx, templates.RecordPage(templates.RecordPageData{Article: sidebars}), "rendering home page", nil)
}

func (s *Server) articleComponent(record content.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if s.theme != nil {
			var buf bytes.Buffer
			found, err := s.theme.RenderPart(content.WithCurrentRecord(ctx, record), &buf, recommendation.DefaultTemplatePart)
			if err != nil {
				return err
			}
			if found {
				_, err := w.Write(buf.Bytes())
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<article class="record record-%d"><h1>%s</h1></article>`, record.ID, templ.EscapeString(record.Title))
		return err
	})
}

func (s *Server) sidebarHandler(ctx context.Context, input *sidebarInput) (*htmlResponse, error) {
	name := strings.TrimSpace(input.Name)

	var buf bytes.Buffer
	if err := s.writeSidebar(ctx, &buf, name); err != nil {
		return s.htmlError(ctx, err, "rendering sidebar", logrus.Fields{"sidebar": name})
	}
	return newHTMLResponse(stdhttp.StatusOK, buf.Bytes()), nil
}

// writeSidebar renders one sidebar inside its widget-area wrapper. Nothing is written on error.
func (s *Server) writeSidebar(ctx context.Context, w io.Writer, name string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<aside class="widget-area" id="sidebar-%s">`, templ.EscapeString(name))
	if err := s.widgets.RenderSidebar(ctx, &buf, name); err != nil {
		label := name
		if eris.Is(err, widget.ErrUnknownSidebar) {
			label = "unknown"
		}
		s.metrics.RecordSidebarRender(label, "error")
		return err
	}
	buf.WriteString(`</aside>`)
	s.metrics.RecordSidebarRender(name, "ok")

	_, err := w.Write(buf.Bytes())
	return err
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.Suggester = "ready"
	resp.Body.Editor = "enabled"

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	// Both are optional, so their absence is reported without degrading the status.
	if s.suggester == nil {
		resp.Body.Suggester = "unconfigured"
	}
	if s.editor == nil {
		resp.Body.Editor = "disabled"
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}
