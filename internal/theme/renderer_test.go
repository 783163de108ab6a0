package theme

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"newsrecs/app/internal/content"
)

func staticFragment(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}

type stubLinker struct{}

func (stubLinker) Link(_ context.Context, record content.Record) string {
	return record.MetaValue("_url")
}

func TestPartCandidates(t *testing.T) {
	t.Parallel()

	got := Part{Slug: "templates/widget", Name: "recommendation"}.Candidates()
	if len(got) != 2 || got[0] != "templates/widget-recommendation" || got[1] != "templates/widget" {
		t.Fatalf("unexpected candidates %v", got)
	}
	if got := (Part{Slug: "templates/widget"}).Candidates(); len(got) != 1 {
		t.Fatalf("expected slug only, got %v", got)
	}
	if got := (Part{Name: "x"}).Candidates(); got != nil {
		t.Fatalf("expected no candidates without slug, got %v", got)
	}
}

func TestRenderPartPrefersSpecificFragment(t *testing.T) {
	t.Parallel()

	renderer := NewRenderer()
	if err := renderer.Register("templates/widget", staticFragment("generic")); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	var buf bytes.Buffer
	part := Part{Slug: "templates/widget", Name: "recommendation"}

	found, err := renderer.RenderPart(context.Background(), &buf, part)
	if err != nil || !found {
		t.Fatalf("expected generic fragment, got found=%v err=%v", found, err)
	}
	if buf.String() != "generic" {
		t.Fatalf("expected generic output, got %q", buf.String())
	}

	if err := renderer.Register("templates/widget-recommendation", staticFragment("specific")); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	buf.Reset()
	if _, err := renderer.RenderPart(context.Background(), &buf, part); err != nil {
		t.Fatalf("RenderPart returned error: %v", err)
	}
	if buf.String() != "specific" {
		t.Fatalf("expected specific output, got %q", buf.String())
	}
}

func TestRenderPartMissingWritesNothing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	found, err := NewRenderer().RenderPart(context.Background(), &buf, Part{Slug: "nope"})
	if err != nil || found {
		t.Fatalf("expected not found without error, got found=%v err=%v", found, err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestRecommendationFragmentRendersCurrentRecord(t *testing.T) {
	t.Parallel()

	record := content.Record{
		ID:    4,
		Title: "Rivers & <Seas>",
		Body:  "A **long** read.",
		Meta:  map[string]string{"_source": "The Atlantic", "_url": "https://theatlantic.example/rivers"},
	}
	ctx := content.WithCurrentRecord(context.Background(), record)

	var buf bytes.Buffer
	if err := RecommendationFragment(stubLinker{}, "_source").Render(ctx, &buf); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	body := buf.String()
	for _, want := range []string{
		`<a href="https://theatlantic.example/rivers"`,
		`Rivers &amp; &lt;Seas&gt;`,
		`<span class="recommendation-source">The Atlantic</span>`,
		`<strong>long</strong>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in %q", want, body)
		}
	}
}

func TestRecommendationFragmentWithoutLinkOrRecord(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := RecommendationFragment(stubLinker{}, "_source").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output without a current record, got %q", buf.String())
	}

	ctx := content.WithCurrentRecord(context.Background(), content.Record{ID: 1, Title: "Plain"})
	if err := RecommendationFragment(stubLinker{}, "_source").Render(ctx, &buf); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(buf.String(), "<a ") {
		t.Fatalf("expected no anchor without a link, got %q", buf.String())
	}
}

func TestRecommendationBodyDropsUnsafeLinks(t *testing.T) {
	t.Parallel()

	record := content.Record{
		ID:    9,
		Title: "Links",
		Body:  "[click](javascript:alert(document.cookie)) and [story](https://news.example/a)",
	}
	ctx := content.WithCurrentRecord(context.Background(), record)

	var buf bytes.Buffer
	if err := RecommendationFragment(nil, "_source").Render(ctx, &buf); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	body := buf.String()
	if strings.Contains(strings.ToLower(body), "javascript:") {
		t.Fatalf("expected javascript link to be dropped, got %q", body)
	}
	if !strings.Contains(body, "click") {
		t.Fatalf("expected link text kept, got %q", body)
	}
	if !strings.Contains(body, `href="https://news.example/a"`) || !strings.Contains(body, "nofollow") {
		t.Fatalf("expected safe link with nofollow, got %q", body)
	}
}
