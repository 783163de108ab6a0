package recommendation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"newsrecs/app/internal/blocks"
	"newsrecs/app/internal/content"
	"newsrecs/app/internal/db"
	"newsrecs/app/internal/hooks"
	applog "newsrecs/app/internal/log"
	"newsrecs/app/internal/theme"
	"newsrecs/app/internal/widget"
)

const siteURL = "https://news.example"

type testHost struct {
	host   Host
	store  *content.Store
	theme  *theme.Renderer
	plugin *Plugin
}

func titleFragment() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		record, ok := content.CurrentRecord(ctx)
		if !ok {
			return fmt.Errorf("no current record")
		}
		_, err := fmt.Fprintf(w, "<li>%s</li>", record.Title)
		return err
	})
}

func setupHost(t *testing.T, caps Capabilities) *testHost {
	t.Helper()

	gormDB, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "plugin.db")})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gormDB) })

	logger := applog.Discard()
	if err := content.Migrate(context.Background(), gormDB, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	repo, err := content.NewRepository(gormDB, logger)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}

	types := content.NewTypeRegistry()
	if err := content.RegisterCoreTypes(types); err != nil {
		t.Fatalf("RegisterCoreTypes returned error: %v", err)
	}
	meta := content.NewMetaRegistry(types, logger)

	store, err := content.NewStore(repo, types, meta, logger, nil)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	editor, err := blocks.NewEditor(blocks.NewRegistry(), blocks.NewAssets(), logger)
	if err != nil {
		t.Fatalf("NewEditor returned error: %v", err)
	}

	renderer := theme.NewRenderer()
	if err := renderer.Register(theme.RecommendationPart, titleFragment()); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	host := Host{
		Types:      types,
		Meta:       meta,
		Permalinks: content.NewPermalinks(siteURL, types),
		Editor:     editor,
		Widgets:    widget.NewRegistry(),
		Store:      store,
		Theme:      renderer,
	}

	plugin := New(caps, nil, logger)
	if err := plugin.Register(host); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	return &testHost{host: host, store: store, theme: renderer, plugin: plugin}
}

func fullCapabilities() Capabilities {
	return StaticCapabilities{Editor: true, Translations: true}
}

func (h *testHost) createRecommendation(t *testing.T, title, source, url string) *content.Record {
	t.Helper()

	record, err := h.store.Create(context.Background(), TypeName, content.Draft{
		Title: title,
		Meta:  map[string]string{SourceKey: source, URLKey: url},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return record
}

func TestRegisterDeclaresLockedRecordType(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())

	rt, ok := h.host.Types.Get(TypeName)
	if !ok {
		t.Fatalf("expected recommendation type to be registered")
	}
	if rt.Public || rt.Rewrite || rt.ShowInAdminBar {
		t.Fatalf("expected private type without rewrites, got %#v", rt.TypeOptions)
	}
	if !rt.ShowInREST || !rt.ShowUI || !rt.ShowInMenu {
		t.Fatalf("expected type exposed to REST and admin, got %#v", rt.TypeOptions)
	}
	if rt.TemplateLock != content.TemplateLockAll || len(rt.Template) != 1 || rt.Template[0] != BlockName {
		t.Fatalf("expected locked single-block template, got %v (%q)", rt.Template, rt.TemplateLock)
	}
	for _, s := range []content.Support{content.SupportTitle, content.SupportEditor, content.SupportCustomFields} {
		if !rt.HasSupport(s) {
			t.Fatalf("expected support %q", s)
		}
	}
	if rt.Label != "Recommendation" || rt.Labels.SingularName != "Recommendation" || rt.Description != "Daily Recommendations" {
		t.Fatalf("unexpected labels %q %#v", rt.Label, rt.Labels)
	}
	gotLabels := map[string]string{
		"add_new":            rt.Labels.AddNew,
		"search_items":       rt.Labels.SearchItems,
		"not_found":          rt.Labels.NotFound,
		"not_found_in_trash": rt.Labels.NotFoundInTrash,
	}
	for key, want := range map[string]string{
		"add_new":            "New Recommendation",
		"search_items":       "Search recommendations",
		"not_found":          "No recommendations found",
		"not_found_in_trash": "No recommendations found in Trash",
	} {
		if gotLabels[key] != want {
			t.Fatalf("expected %s label %q, got %q", key, want, gotLabels[key])
		}
	}
}

func TestRegisterTwiceAddsCallbacksOnce(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())
	permalinkFilters := h.host.Permalinks.Filter().Len()
	allowedFilters := h.host.Editor.AllowedFilter().Len()
	enqueueActions := h.host.Editor.Enqueue().Len()

	if err := h.plugin.Register(h.host); err != nil {
		t.Fatalf("second Register returned error: %v", err)
	}
	if len(h.host.Editor.Blocks().All()) != 1 {
		t.Fatalf("expected block registered once, got %d", len(h.host.Editor.Blocks().All()))
	}
	if got := h.host.Permalinks.Filter().Len(); got != permalinkFilters {
		t.Fatalf("expected %d permalink filters, got %d", permalinkFilters, got)
	}
	if got := h.host.Editor.AllowedFilter().Len(); got != allowedFilters {
		t.Fatalf("expected %d allowed-block filters, got %d", allowedFilters, got)
	}
	if got := h.host.Editor.Enqueue().Len(); got != enqueueActions {
		t.Fatalf("expected %d enqueue actions, got %d", enqueueActions, got)
	}
}

func TestFieldsDefaultToEmptyAndAreSanitized(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())
	ctx := context.Background()

	record, err := h.store.Create(ctx, TypeName, content.Draft{Title: "Bare"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	loaded, err := h.store.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	for _, key := range []string{SourceKey, URLKey} {
		value, ok := loaded.Meta[key]
		if !ok || value != "" {
			t.Fatalf("expected %s to be an empty string, got %q (present=%v)", key, value, ok)
		}
	}
	if len(loaded.Blocks) != 1 || loaded.Blocks[0] != BlockName {
		t.Fatalf("expected exactly one recommendation block, got %v", loaded.Blocks)
	}

	stored, err := h.store.SetMeta(ctx, record.ID, SourceKey, "  <b>The\n Guardian</b> ")
	if err != nil {
		t.Fatalf("SetMeta returned error: %v", err)
	}
	if stored != "The Guardian" {
		t.Fatalf("expected sanitized source, got %q", stored)
	}

	field, ok := h.host.Meta.Field(TypeName, URLKey)
	if !ok || !field.ShowInREST || !field.Single || field.Type != content.MetaTypeString {
		t.Fatalf("unexpected url field %#v", field)
	}
}

func TestRecordsCannotChangeTheirBlocks(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())
	record := h.createRecommendation(t, "Locked", "", "")

	_, err := h.store.Update(context.Background(), record.ID, content.Patch{Blocks: []string{BlockName, BlockName}})
	if err == nil {
		t.Fatalf("expected template lock to reject a second block")
	}
}

func TestPermalinkRewrite(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())
	ctx := context.Background()
	links := h.host.Permalinks

	withURL := h.createRecommendation(t, "Linked", "BBC", "https://bbc.example/story?id=1&x=2")
	if got := links.Link(ctx, *withURL); got != "https://bbc.example/story?id=1&x=2" {
		t.Fatalf("expected story url, got %q", got)
	}

	// An empty url falls back to the default permalink rather than an empty link.
	withoutURL := h.createRecommendation(t, "Unlinked", "BBC", "")
	want := fmt.Sprintf("%s/?p=%d&post_type=recommendation", siteURL, withoutURL.ID)
	if got := links.Link(ctx, *withoutURL); got != want {
		t.Fatalf("expected default permalink %q, got %q", want, got)
	}

	post := content.Record{ID: 12, Type: "post", Meta: map[string]string{URLKey: "https://ignored.example"}}
	if got := links.Link(ctx, post); got != siteURL+"/post/12/" {
		t.Fatalf("expected post permalink unchanged, got %q", got)
	}
}

func TestPermalinkRewriteKeepsEarlierFilters(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())
	ctx := context.Background()
	links := h.host.Permalinks

	links.Filter().Add(hooks.DefaultPriority-1, func(_ context.Context, link string, _ content.Record) string {
		return link + "&ref=sidebar"
	})

	unlinked := h.createRecommendation(t, "Unlinked", "", "")
	want := fmt.Sprintf("%s/?p=%d&post_type=recommendation&ref=sidebar", siteURL, unlinked.ID)
	if got := links.Link(ctx, *unlinked); got != want {
		t.Fatalf("expected earlier filter output %q, got %q", want, got)
	}

	linked := h.createRecommendation(t, "Linked", "", "https://story.example/a")
	if got := links.Link(ctx, *linked); got != "https://story.example/a" {
		t.Fatalf("expected story url, got %q", got)
	}
	if got := RewritePermalink(ctx, "https://earlier.example", content.Record{Type: TypeName}); got != "https://earlier.example" {
		t.Fatalf("expected incoming link without a story url, got %q", got)
	}
}

func TestAllowedBlocks(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())
	ctx := context.Background()
	editor := h.host.Editor

	allowed := editor.AllowedBlocks(ctx, content.Record{Type: TypeName})
	if allowed.All || len(allowed.Names) != 1 || allowed.Names[0] != BlockName {
		t.Fatalf("expected only the recommendation block, got %#v", allowed)
	}

	input := blocks.AllowedBlocks{Names: []string{"core/paragraph", "core/image"}}
	if got := RestrictAllowedBlocks(ctx, input, content.Record{Type: TypeName}); got.All || len(got.Names) != 1 || got.Names[0] != BlockName {
		t.Fatalf("expected restriction regardless of input, got %#v", got)
	}
	if got := RestrictAllowedBlocks(ctx, input, content.Record{Type: "post"}); len(got.Names) != 2 || got.Names[1] != "core/image" {
		t.Fatalf("expected post allow-list unchanged, got %#v", got)
	}
	if got := editor.AllowedBlocks(ctx, content.Record{Type: "page"}); !got.All {
		t.Fatalf("expected all-blocks sentinel for pages, got %#v", got)
	}
}

func TestEditorAssetsScopedToRecommendations(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())
	ctx := context.Background()
	editor := h.host.Editor

	postScreen := editor.OpenScreen(ctx, content.Record{ID: 1, Type: "post"})
	if postScreen.HasScript(AssetHandle) || postScreen.HasStyle(AssetHandle) {
		t.Fatalf("expected recommendation assets absent on post screen")
	}
	if !postScreen.Blocks.IsRegistered(BlockName) {
		t.Fatalf("expected block restored on the post screen after enqueue")
	}

	recScreen := editor.OpenScreen(ctx, content.Record{ID: 2, Type: TypeName})
	if !recScreen.HasScript(AssetHandle) || !recScreen.HasStyle(AssetHandle) {
		t.Fatalf("expected recommendation assets present on recommendation screen")
	}

	script := recScreen.Scripts()[0]
	if script.Version != AssetVersion || !script.InFooter || len(script.Deps) != len(editorScriptDeps) {
		t.Fatalf("unexpected script registration %#v", script)
	}

	if !editor.Blocks().IsRegistered(BlockName) {
		t.Fatalf("expected global registry to keep the block")
	}
}

func TestScoperIsNoopWithoutBlock(t *testing.T) {
	t.Parallel()

	registry := blocks.NewRegistry()
	editor, err := blocks.NewEditor(registry, blocks.NewAssets(), nil)
	if err != nil {
		t.Fatalf("NewEditor returned error: %v", err)
	}
	editor.Enqueue().Add(ScoperPriority, ScopeEditorAssets)

	screen := editor.OpenScreen(context.Background(), content.Record{Type: "post"})
	if screen.Blocks.IsRegistered(BlockName) {
		t.Fatalf("expected block to stay unregistered")
	}
}

func TestWithoutBlockEditorNothingIsRegistered(t *testing.T) {
	t.Parallel()

	h := setupHost(t, StaticCapabilities{})

	if h.host.Editor.Blocks().IsRegistered(BlockName) {
		t.Fatalf("expected block to be skipped without editor support")
	}
	if _, ok := h.host.Editor.Assets().Script(AssetHandle); ok {
		t.Fatalf("expected editor script to be skipped without editor support")
	}
	if !h.host.Types.Exists(TypeName) {
		t.Fatalf("expected record type regardless of editor support")
	}
}

func TestEditingBlockChanges(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())
	ctx := context.Background()
	editor := h.host.Editor

	record := h.createRecommendation(t, "Edited", "", "https://before.example/a")

	updated, err := editor.ApplyChange(ctx, h.store, record.ID, blocks.Change{Block: BlockName, Control: "source", Value: "BBC"})
	if err != nil {
		t.Fatalf("ApplyChange returned error: %v", err)
	}
	if updated.MetaValue(SourceKey) != "BBC" || updated.MetaValue(URLKey) != "https://before.example/a" {
		t.Fatalf("expected source BBC and url unchanged, got %v", updated.Meta)
	}

	// The URL control writes the url field. It does not touch source.
	updated, err = editor.ApplyChange(ctx, h.store, record.ID, blocks.Change{Block: BlockName, Control: "url", Value: "https://example.com/a"})
	if err != nil {
		t.Fatalf("ApplyChange returned error: %v", err)
	}
	if updated.MetaValue(URLKey) != "https://example.com/a" || updated.MetaValue(SourceKey) != "BBC" {
		t.Fatalf("expected url updated and source kept, got %v", updated.Meta)
	}

	stored, err := h.store.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.MetaValue(URLKey) != "https://example.com/a" || stored.MetaValue(SourceKey) != "BBC" {
		t.Fatalf("expected persisted fields, got %v", stored.Meta)
	}
}

func TestBlockRendersNoFrontEndMarkup(t *testing.T) {
	t.Parallel()

	h := setupHost(t, fullCapabilities())
	record := h.createRecommendation(t, "Quiet", "AP", "https://ap.example")

	var buf bytes.Buffer
	if err := h.host.Editor.Blocks().RenderContent(context.Background(), &buf, *record); err != nil {
		t.Fatalf("RenderContent returned error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty front-end body, got %q", buf.String())
	}

	block, _ := h.host.Editor.Blocks().Get(BlockName)
	if block.Supports.Multiple || block.Supports.HTML || block.Supports.CustomClassName {
		t.Fatalf("unexpected supports %#v", block.Supports)
	}
	if strings.Join(block.Keywords, ",") != "recommendation,source" {
		t.Fatalf("unexpected keywords %v", block.Keywords)
	}
	if control, _ := block.Control("url"); control.InputType != "url" || control.Help != "Enter the URL to the news story" {
		t.Fatalf("unexpected url control %#v", control)
	}
}
