package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"

	"github.com/a-h/templ"
	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"newsrecs/app/internal/blocks"
	"newsrecs/app/internal/content"
	"newsrecs/app/internal/http/templates"
	"newsrecs/app/internal/widget"
)

type editorScreenInput struct {
	AuthParam
	ID uint `path:"id"`
}

type changeInput struct {
	AuthParam
	ID   uint `path:"id"`
	Body struct {
		Block   string `json:"block" minLength:"1"`
		Control string `json:"control" minLength:"1"`
		Value   string `json:"value"`
	}
}

type changeOutput struct {
	Body struct {
		ID   uint              `json:"id"`
		Type string            `json:"type"`
		Meta map[string]string `json:"meta"`
	}
}

type widgetInstanceView struct {
	ID       uint              `json:"id"`
	Sidebar  string            `json:"sidebar"`
	Position int               `json:"position"`
	Widget   string            `json:"widget"`
	Settings map[string]string `json:"settings"`
}

type widgetInstanceOutput struct {
	Body widgetInstanceView
}

type widgetFormInput struct {
	AuthParam
	ID uint `path:"id"`
}

type widgetUpdateInput struct {
	AuthParam
	ID   uint `path:"id"`
	Body struct {
		Settings map[string]string `json:"settings"`
	}
}

type widgetPlaceInput struct {
	AuthParam
	Sidebar string `path:"sidebar"`
	Body    struct {
		Widget   string            `json:"widget" minLength:"1"`
		Settings map[string]string `json:"settings,omitempty"`
	}
}

type sidebarView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type sidebarListOutput struct {
	Body struct {
		Sidebars []sidebarView `json:"sidebars"`
	}
}

func (s *Server) registerEditorRoutes() {
	huma.Get(s.api, "/admin/records/{id}/edit", s.editorScreenHandler, bearer, htmlOperation(
		"Open the block editor for a record",
		stdhttp.StatusUnauthorized,
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Post(s.api, "/admin/records/{id}/changes", s.applyChangeHandler, bearer, func(op *huma.Operation) {
		op.Summary = "Apply a block control change"
	})
}

func (s *Server) registerWidgetRoutes() {
	huma.Get(s.api, "/admin/sidebars", s.listSidebarsHandler, bearer, func(op *huma.Operation) {
		op.Summary = "List sidebars"
	})
	huma.Post(s.api, "/admin/sidebars/{sidebar}/widgets", s.placeWidgetHandler, bearer, func(op *huma.Operation) {
		op.Summary = "Place a widget in a sidebar"
		op.DefaultStatus = stdhttp.StatusCreated
	})
	huma.Get(s.api, "/admin/widgets/{id}", s.widgetFormHandler, bearer, htmlOperation(
		"Show a widget settings form",
		stdhttp.StatusUnauthorized,
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Put(s.api, "/admin/widgets/{id}", s.updateWidgetHandler, bearer, func(op *huma.Operation) {
		op.Summary = "Update widget settings"
	})
}

func (s *Server) editorScreenHandler(ctx context.Context, input *editorScreenInput) (*htmlResponse, error) {
	fields := logrus.Fields{"record_id": input.ID}
	ctx, err := s.authorize(ctx, input.Authorization)
	if err != nil {
		return s.htmlError(ctx, err, "rejecting editor screen", fields)
	}
	if s.editor == nil {
		return s.renderErrorResponse(ctx, stdhttp.StatusNotFound, "Block editing is not available.")
	}

	record, err := s.store.Get(ctx, input.ID)
	if err != nil {
		return s.htmlError(ctx, err, "loading record for editor", fields)
	}

	screen := s.editor.OpenScreen(ctx, *record)
	allowed := s.editor.AllowedBlocks(ctx, *record)
	s.metrics.RecordEditorScreen(record.Type)

	data := templates.EditorPageData{
		Title:         "Edit " + record.Title,
		RecordID:      record.ID,
		RecordTitle:   record.Title,
		RecordType:    record.Type,
		AllBlocks:     allowed.All,
		AllowedBlocks: allowed.Names,
	}
	for _, script := range screen.Scripts() {
		view := templates.AssetView{Handle: script.Handle, URL: script.URL()}
		if len(script.Translations) > 0 {
			encoded, err := json.Marshal(script.Translations)
			if err != nil {
				s.recordError(ctx, err, "encoding script translations", fields)
			} else {
				view.Translations = string(encoded)
			}
		}
		data.Scripts = append(data.Scripts, view)
	}
	for _, style := range screen.Styles() {
		data.Styles = append(data.Styles, templates.AssetView{Handle: style.Handle, URL: style.URL()})
	}
	data.Forms = blockForms(screen, *record)

	return s.renderPage(ctx, templates.EditorPage(data), "rendering editor screen", fields)
}

// blockForms renders one form per block in the record that the screen knows about.
func blockForms(screen *blocks.Screen, record content.Record) []templ.Component {
	forms := make([]templ.Component, 0, len(record.Blocks))
	for _, name := range record.Blocks {
		block, ok := screen.Blocks.Get(name)
		if !ok {
			continue
		}
		forms = append(forms, blocks.Form(block, record.ID, block.AttributeValues(record)))
	}
	return forms
}

func (s *Server) applyChangeHandler(ctx context.Context, input *changeInput) (*changeOutput, error) {
	fields := logrus.Fields{
		"record_id": input.ID,
		"block":     input.Body.Block,
		"control":   input.Body.Control,
	}
	ctx, err := s.authorize(ctx, input.Authorization)
	if err != nil {
		return nil, s.apiError(ctx, err, "rejecting block change", fields)
	}
	if s.editor == nil {
		return nil, huma.Error404NotFound("Block editing is not available.")
	}

	record, err := s.editor.ApplyChange(ctx, s.store, input.ID, blocks.Change{
		Block:   input.Body.Block,
		Control: input.Body.Control,
		Value:   input.Body.Value,
	})
	if err != nil {
		return nil, s.apiError(ctx, err, "applying block change", fields)
	}

	out := &changeOutput{}
	out.Body.ID = record.ID
	out.Body.Type = record.Type
	out.Body.Meta = record.Meta
	return out, nil
}

func (s *Server) listSidebarsHandler(ctx context.Context, input *AuthParam) (*sidebarListOutput, error) {
	if _, err := s.authorize(ctx, input.Authorization); err != nil {
		return nil, s.apiError(ctx, err, "rejecting sidebar listing", nil)
	}

	out := &sidebarListOutput{}
	out.Body.Sidebars = []sidebarView{}
	for _, sidebar := range s.widgets.Sidebars() {
		out.Body.Sidebars = append(out.Body.Sidebars, sidebarView{ID: sidebar.ID, Name: sidebar.Name})
	}
	return out, nil
}

func (s *Server) placeWidgetHandler(ctx context.Context, input *widgetPlaceInput) (*widgetInstanceOutput, error) {
	fields := logrus.Fields{"sidebar": input.Sidebar, "widget": input.Body.Widget}
	ctx, err := s.authorize(ctx, input.Authorization)
	if err != nil {
		return nil, s.apiError(ctx, err, "rejecting widget placement", fields)
	}

	instance, err := s.widgets.Place(ctx, input.Sidebar, input.Body.Widget, input.Body.Settings)
	if err != nil {
		return nil, s.apiError(ctx, err, "placing widget", fields)
	}
	return &widgetInstanceOutput{Body: instanceView(instance)}, nil
}

func (s *Server) widgetFormHandler(ctx context.Context, input *widgetFormInput) (*htmlResponse, error) {
	fields := logrus.Fields{"instance_id": input.ID}
	ctx, err := s.authorize(ctx, input.Authorization)
	if err != nil {
		return s.htmlError(ctx, err, "rejecting widget form", fields)
	}

	form, instance, err := s.widgets.Form(ctx, input.ID)
	if err != nil {
		return s.htmlError(ctx, err, "loading widget form", fields)
	}

	name := instance.IDBase
	if _, w, err := s.widgets.Instance(ctx, input.ID); err == nil {
		name = w.Name()
	}

	return s.renderPage(ctx, templates.WidgetFormPage(templates.WidgetFormPageData{
		Title:      name,
		InstanceID: instance.ID,
		Sidebar:    instance.Sidebar,
		WidgetName: name,
		Form:       form,
	}), "rendering widget form", fields)
}

func (s *Server) updateWidgetHandler(ctx context.Context, input *widgetUpdateInput) (*widgetInstanceOutput, error) {
	fields := logrus.Fields{"instance_id": input.ID}
	ctx, err := s.authorize(ctx, input.Authorization)
	if err != nil {
		return nil, s.apiError(ctx, err, "rejecting widget update", fields)
	}

	instance, err := s.widgets.Update(ctx, input.ID, widget.Settings(input.Body.Settings))
	if err != nil {
		return nil, s.apiError(ctx, err, "updating widget", fields)
	}
	return &widgetInstanceOutput{Body: instanceView(instance)}, nil
}

func instanceView(instance *widget.Instance) widgetInstanceView {
	settings := map[string]string(instance.Settings.Clone())
	if settings == nil {
		settings = map[string]string{}
	}
	return widgetInstanceView{
		ID:       instance.ID,
		Sidebar:  instance.Sidebar,
		Position: instance.Position,
		Widget:   instance.IDBase,
		Settings: settings,
	}
}
