package blocks

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rotisserie/eris"

	"newsrecs/app/internal/content"
	"newsrecs/app/internal/hooks"
)

func sampleBlock(name string) BlockType {
	return BlockType{
		Name:  name,
		Title: "Sample",
		Attributes: map[string]Attribute{
			"source": {Type: "string", Source: AttributeSourceMeta, Meta: "_source"},
			"url":    {Type: "string", Source: AttributeSourceMeta, Meta: "_url"},
		},
		Controls: []Control{
			{Name: "source", Label: "Source", Attribute: "source"},
			{Name: "url", Label: "URL", InputType: "url", Attribute: "url"},
		},
		EditorScript: name + "-script",
		EditorStyle:  name + "-style",
	}
}

func newTestEditor(t *testing.T, names ...string) *Editor {
	t.Helper()

	registry := NewRegistry()
	assets := NewAssets()
	for _, name := range names {
		if err := registry.Register(sampleBlock(name)); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		assets.RegisterScript(Script{Handle: name + "-script", Src: "/static/" + name + ".js"})
		assets.RegisterStyle(Style{Handle: name + "-style", Src: "/static/" + name + ".css"})
	}

	editor, err := NewEditor(registry, assets, nil)
	if err != nil {
		t.Fatalf("NewEditor returned error: %v", err)
	}
	return editor
}

type stubMetaStore struct {
	record *content.Record
	writes map[string]string
	err    error
}

func (s *stubMetaStore) Get(_ context.Context, id uint) (*content.Record, error) {
	if s.record == nil || s.record.ID != id {
		return nil, content.ErrNotFound
	}
	clone := *s.record
	clone.Meta = make(map[string]string, len(s.record.Meta))
	for k, v := range s.record.Meta {
		clone.Meta[k] = v
	}
	return &clone, nil
}

func (s *stubMetaStore) SetMeta(_ context.Context, _ uint, key, value string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.writes == nil {
		s.writes = make(map[string]string)
	}
	s.writes[key] = value
	s.record.Meta[key] = value
	return value, nil
}

func TestRegistryRejectsDuplicatesAndBareNames(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	if err := registry.Register(sampleBlock("acme/card")); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := registry.Register(sampleBlock("acme/card")); !eris.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if err := registry.Register(sampleBlock("card")); err == nil {
		t.Fatalf("expected error for block name without namespace")
	}
}

func TestRegistryUnregisterAndRestore(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	for _, name := range []string{"acme/a", "acme/b"} {
		if err := registry.Register(sampleBlock(name)); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
	}

	taken, ok := registry.Unregister("acme/a")
	if !ok || taken.Name != "acme/a" {
		t.Fatalf("expected to take acme/a, got %#v (ok=%v)", taken, ok)
	}
	if registry.IsRegistered("acme/a") {
		t.Fatalf("expected acme/a to be gone")
	}
	if _, ok := registry.Unregister("acme/a"); ok {
		t.Fatalf("expected second unregister to report false")
	}

	if err := registry.Register(taken); err != nil {
		t.Fatalf("restoring block returned error: %v", err)
	}

	all := registry.All()
	if len(all) != 2 || all[0].Name != "acme/b" || all[1].Name != "acme/a" {
		t.Fatalf("unexpected registry order %v", all)
	}
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	if err := registry.Register(sampleBlock("acme/a")); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	clone := registry.Clone()
	clone.Unregister("acme/a")

	if !registry.IsRegistered("acme/a") {
		t.Fatalf("expected original registry to keep acme/a")
	}
	if clone.IsRegistered("acme/a") {
		t.Fatalf("expected clone to drop acme/a")
	}
}

func TestOpenScreenEnqueuesAssetsOfRegisteredBlocks(t *testing.T) {
	t.Parallel()

	editor := newTestEditor(t, "acme/a", "acme/b")
	screen := editor.OpenScreen(context.Background(), content.Record{ID: 1, Type: "post"})

	if !screen.HasScript("acme/a-script") || !screen.HasScript("acme/b-script") {
		t.Fatalf("expected both scripts enqueued, got %v", screen.Scripts())
	}
	if !screen.HasStyle("acme/a-style") || !screen.HasStyle("acme/b-style") {
		t.Fatalf("expected both styles enqueued, got %v", screen.Styles())
	}
}

func TestEnqueueActionsBeforeCoreCanHideBlocks(t *testing.T) {
	t.Parallel()

	editor := newTestEditor(t, "acme/a", "acme/b")

	var restoredInside bool
	editor.Enqueue().Add(5, func(_ context.Context, screen *Screen) {
		taken, ok := screen.Blocks.Unregister("acme/a")
		if !ok {
			return
		}
		screen.AfterEnqueue(func() {
			restoredInside = screen.Blocks.Register(taken) == nil
		})
	})

	screen := editor.OpenScreen(context.Background(), content.Record{ID: 1, Type: "post"})

	if screen.HasScript("acme/a-script") {
		t.Fatalf("expected hidden block script to be absent")
	}
	if !screen.HasScript("acme/b-script") {
		t.Fatalf("expected other block script to be present")
	}
	if !restoredInside || !screen.Blocks.IsRegistered("acme/a") {
		t.Fatalf("expected block restored on the screen after enqueue")
	}
	if !editor.Blocks().IsRegistered("acme/a") {
		t.Fatalf("expected global registry untouched")
	}
}

func TestAllowedBlocksDefaultsToAll(t *testing.T) {
	t.Parallel()

	editor := newTestEditor(t, "acme/a")
	allowed := editor.AllowedBlocks(context.Background(), content.Record{Type: "post"})

	if !allowed.All || !allowed.Allows("anything/else") {
		t.Fatalf("expected all blocks allowed, got %#v", allowed)
	}

	editor.AllowedFilter().Add(hooks.DefaultPriority, func(_ context.Context, _ AllowedBlocks, _ content.Record) AllowedBlocks {
		return AllowedBlocks{Names: []string{"acme/a"}}
	})
	allowed = editor.AllowedBlocks(context.Background(), content.Record{Type: "post"})
	if allowed.All || !allowed.Allows("acme/a") || allowed.Allows("acme/b") {
		t.Fatalf("expected filtered allow-list, got %#v", allowed)
	}
}

func TestApplyChangeWritesOnlyBoundField(t *testing.T) {
	t.Parallel()

	editor := newTestEditor(t, "acme/a")
	store := &stubMetaStore{record: &content.Record{
		ID:     3,
		Type:   "post",
		Blocks: []string{"acme/a"},
		Meta:   map[string]string{"_source": "", "_url": "https://old.example"},
	}}

	record, err := editor.ApplyChange(context.Background(), store, 3, Change{Block: "acme/a", Control: "source", Value: "BBC"})
	if err != nil {
		t.Fatalf("ApplyChange returned error: %v", err)
	}

	if record.MetaValue("_source") != "BBC" {
		t.Fatalf("expected source BBC, got %q", record.MetaValue("_source"))
	}
	if record.MetaValue("_url") != "https://old.example" {
		t.Fatalf("expected url untouched, got %q", record.MetaValue("_url"))
	}
	if len(store.writes) != 1 {
		t.Fatalf("expected exactly one write, got %v", store.writes)
	}
}

func TestApplyChangeRejectsUnknownTargets(t *testing.T) {
	t.Parallel()

	editor := newTestEditor(t, "acme/a", "acme/b")
	store := &stubMetaStore{record: &content.Record{ID: 3, Blocks: []string{"acme/a"}, Meta: map[string]string{}}}
	ctx := context.Background()

	if _, err := editor.ApplyChange(ctx, store, 3, Change{Block: "acme/zzz", Control: "source"}); !eris.Is(err, ErrUnknownBlock) {
		t.Fatalf("expected ErrUnknownBlock, got %v", err)
	}
	if _, err := editor.ApplyChange(ctx, store, 3, Change{Block: "acme/a", Control: "colour"}); !eris.Is(err, ErrUnknownControl) {
		t.Fatalf("expected ErrUnknownControl, got %v", err)
	}
	if _, err := editor.ApplyChange(ctx, store, 3, Change{Block: "acme/b", Control: "source"}); !eris.Is(err, ErrBlockNotInRecord) {
		t.Fatalf("expected ErrBlockNotInRecord, got %v", err)
	}
	if len(store.writes) != 0 {
		t.Fatalf("expected no writes, got %v", store.writes)
	}
}

func TestFormRendersControlsWithValues(t *testing.T) {
	t.Parallel()

	block := sampleBlock("acme/a")
	block.Controls[0].Help = "Publication <name>"

	var buf bytes.Buffer
	err := Form(block, 9, map[string]string{"source": `"Quoted"`, "url": "https://x.example"}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	body := buf.String()
	for _, want := range []string{
		`data-block="acme/a"`,
		`type="url" name="url" value="https://x.example"`,
		`value="&#34;Quoted&#34;"`,
		`Publication &lt;name&gt;`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected form to contain %q, got %q", want, body)
		}
	}
}

func TestRenderContentSkipsBlocksWithoutOutput(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	silent := sampleBlock("acme/silent")
	loud := sampleBlock("acme/loud")
	loud.Render = func(_ context.Context, w io.Writer, record content.Record) error {
		_, err := io.WriteString(w, "<p>"+record.Title+"</p>")
		return err
	}
	for _, block := range []BlockType{silent, loud} {
		if err := registry.Register(block); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
	}

	var buf bytes.Buffer
	record := content.Record{Title: "hi", Blocks: []string{"acme/silent", "acme/missing"}}
	if err := registry.RenderContent(context.Background(), &buf, record); err != nil {
		t.Fatalf("RenderContent returned error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	record.Blocks = append(record.Blocks, "acme/loud")
	if err := registry.RenderContent(context.Background(), &buf, record); err != nil {
		t.Fatalf("RenderContent returned error: %v", err)
	}
	if buf.String() != "<p>hi</p>" {
		t.Fatalf("expected loud block output, got %q", buf.String())
	}
}

func TestAssetURLsCarryVersion(t *testing.T) {
	t.Parallel()

	script := Script{Src: "/static/js/editor.js", Version: "20181021"}
	if script.URL() != "/static/js/editor.js?ver=20181021" {
		t.Fatalf("unexpected script url %q", script.URL())
	}
	style := Style{Src: "/static/css/editor.css?x=1", Version: "2"}
	if style.URL() != "/static/css/editor.css?x=1&ver=2" {
		t.Fatalf("unexpected style url %q", style.URL())
	}
}
