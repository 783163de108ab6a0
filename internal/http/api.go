package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"newsrecs/app/internal/content"
	"newsrecs/app/internal/recommendation"
)

const (
	recommendationsPath = "/api/recommendations"
	defaultPerPage      = 10
)

type recommendationView struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Link      string    `json:"link"`
	Blocks    []string  `json:"blocks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type recommendationOutput struct {
	Body recommendationView
}

type recommendationListOutput struct {
	Body struct {
		Items []recommendationView `json:"items"`
	}
}

type listInput struct {
	PerPage int `query:"per_page" minimum:"1" maximum:"100" default:"10"`
}

type recordIDInput struct {
	ID uint `path:"id"`
}

// AuthParam is embedded by inputs of routes that require an editor token.
type AuthParam struct {
	Authorization string `header:"Authorization"`
}

type createInput struct {
	AuthParam
	Body struct {
		Title  string `json:"title" minLength:"1" maxLength:"512"`
		Body   string `json:"body,omitempty"`
		Source string `json:"source,omitempty"`
		URL    string `json:"url,omitempty"`
	}
}

type patchInput struct {
	AuthParam
	ID   uint `path:"id"`
	Body struct {
		Title  *string `json:"title,omitempty" maxLength:"512"`
		Body   *string `json:"body,omitempty"`
		Source *string `json:"source,omitempty"`
		URL    *string `json:"url,omitempty"`
	}
}

type deleteInput struct {
	AuthParam
	ID uint `path:"id"`
}

type suggestInput struct {
	AuthParam
	Body struct {
		URL string `json:"url" minLength:"1"`
	}
}

type suggestOutput struct {
	Body struct {
		Source string `json:"source"`
	}
}

func bearer(op *huma.Operation) {
	op.Security = []map[string][]string{{bearerScheme: {}}}
}

func (s *Server) registerRecommendationRoutes() {
	huma.Get(s.api, recommendationsPath, s.listRecommendationsHandler, func(op *huma.Operation) {
		op.Summary = "List the most recent recommendations"
	})
	huma.Get(s.api, recommendationsPath+"/{id}", s.getRecommendationHandler, func(op *huma.Operation) {
		op.Summary = "Fetch a recommendation"
	})
	huma.Post(s.api, recommendationsPath, s.createRecommendationHandler, bearer, func(op *huma.Operation) {
		op.Summary = "Create a recommendation"
		op.DefaultStatus = stdhttp.StatusCreated
	})
	huma.Patch(s.api, recommendationsPath+"/{id}", s.patchRecommendationHandler, bearer, func(op *huma.Operation) {
		op.Summary = "Update a recommendation"
	})
	huma.Delete(s.api, recommendationsPath+"/{id}", s.deleteRecommendationHandler, bearer, func(op *huma.Operation) {
		op.Summary = "Delete a recommendation"
		op.DefaultStatus = stdhttp.StatusNoContent
	})
}

func (s *Server) registerSuggestRoute() {
	huma.Post(s.api, "/admin/suggest-source", s.suggestSourceHandler, bearer, func(op *huma.Operation) {
		op.Summary = "Suggest the publication name of a story URL"
	})
}

func (s *Server) listRecommendationsHandler(ctx context.Context, input *listInput) (*recommendationListOutput, error) {
	perPage := input.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	loop, err := s.store.Query(ctx, content.Query{Type: recommendation.TypeName, PerPage: perPage})
	if err != nil {
		return nil, s.apiError(ctx, err, "listing recommendations", nil)
	}

	out := &recommendationListOutput{}
	out.Body.Items = make([]recommendationView, 0, loop.Len())
	for _, record := range loop.Records() {
		out.Body.Items = append(out.Body.Items, s.recommendationView(ctx, record))
	}
	return out, nil
}

func (s *Server) getRecommendationHandler(ctx context.Context, input *recordIDInput) (*recommendationOutput, error) {
	record, err := s.loadRecommendation(ctx, input.ID)
	if err != nil {
		return nil, s.apiError(ctx, err, "loading recommendation", logrus.Fields{"record_id": input.ID})
	}
	return &recommendationOutput{Body: s.recommendationView(ctx, *record)}, nil
}

func (s *Server) createRecommendationHandler(ctx context.Context, input *createInput) (*recommendationOutput, error) {
	ctx, err := s.authorize(ctx, input.Authorization)
	if err != nil {
		return nil, s.apiError(ctx, err, "rejecting recommendation create", nil)
	}

	record, err := s.store.Create(ctx, recommendation.TypeName, content.Draft{
		Title: input.Body.Title,
		Body:  input.Body.Body,
		Meta: map[string]string{
			recommendation.SourceKey: input.Body.Source,
			recommendation.URLKey:    input.Body.URL,
		},
	})
	if err != nil {
		return nil, s.apiError(ctx, err, "creating recommendation", logrus.Fields{"editor": EditorFromContext(ctx)})
	}
	return &recommendationOutput{Body: s.recommendationView(ctx, *record)}, nil
}

func (s *Server) patchRecommendationHandler(ctx context.Context, input *patchInput) (*recommendationOutput, error) {
	ctx, err := s.authorize(ctx, input.Authorization)
	if err != nil {
		return nil, s.apiError(ctx, err, "rejecting recommendation update", logrus.Fields{"record_id": input.ID})
	}
	if _, err := s.loadRecommendation(ctx, input.ID); err != nil {
		return nil, s.apiError(ctx, err, "loading recommendation", logrus.Fields{"record_id": input.ID})
	}

	patch := content.Patch{Title: input.Body.Title, Body: input.Body.Body, Meta: map[string]string{}}
	if input.Body.Source != nil {
		patch.Meta[recommendation.SourceKey] = *input.Body.Source
	}
	if input.Body.URL != nil {
		patch.Meta[recommendation.URLKey] = *input.Body.URL
	}

	record, err := s.store.Update(ctx, input.ID, patch)
	if err != nil {
		return nil, s.apiError(ctx, err, "updating recommendation", logrus.Fields{"record_id": input.ID})
	}
	return &recommendationOutput{Body: s.recommendationView(ctx, *record)}, nil
}

func (s *Server) deleteRecommendationHandler(ctx context.Context, input *deleteInput) (*struct{}, error) {
	ctx, err := s.authorize(ctx, input.Authorization)
	if err != nil {
		return nil, s.apiError(ctx, err, "rejecting recommendation delete", logrus.Fields{"record_id": input.ID})
	}
	if _, err := s.loadRecommendation(ctx, input.ID); err != nil {
		return nil, s.apiError(ctx, err, "loading recommendation", logrus.Fields{"record_id": input.ID})
	}
	if err := s.store.Delete(ctx, input.ID); err != nil {
		return nil, s.apiError(ctx, err, "deleting recommendation", logrus.Fields{"record_id": input.ID})
	}
	return nil, nil
}

func (s *Server) suggestSourceHandler(ctx context.Context, input *suggestInput) (*suggestOutput, error) {
	ctx, err := s.authorize(ctx, input.Authorization)
	if err != nil {
		return nil, s.apiError(ctx, err, "rejecting source suggestion", nil)
	}
	if s.suggester == nil {
		return nil, huma.Error503ServiceUnavailable("Source suggestions are not configured.")
	}

	source, err := s.suggester.SuggestSource(ctx, input.Body.URL)
	if err != nil {
		return nil, s.apiError(ctx, err, "suggesting source", logrus.Fields{"url": input.Body.URL})
	}

	out := &suggestOutput{}
	out.Body.Source = source
	return out, nil
}

// loadRecommendation loads id and reports records of other types as missing.
func (s *Server) loadRecommendation(ctx context.Context, id uint) (*content.Record, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Type != recommendation.TypeName {
		return nil, eris.Wrapf(content.ErrNotFound, "record %d is a %s", id, record.Type)
	}
	return record, nil
}

func (s *Server) recommendationView(ctx context.Context, record content.Record) recommendationView {
	blocks := record.Blocks
	if blocks == nil {
		blocks = []string{}
	}
	return recommendationView{
		ID:        record.ID,
		Title:     record.Title,
		Body:      record.Body,
		Source:    record.MetaValue(recommendation.SourceKey),
		URL:       record.MetaValue(recommendation.URLKey),
		Link:      s.permalinks.Link(ctx, record),
		Blocks:    blocks,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
