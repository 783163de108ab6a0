package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func TestErrorPageEscapesMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := ErrorPage(ErrorPageData{Title: "404", StatusLabel: "404 Not Found", Message: "<b>gone</b>"}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	body := buf.String()
	if !strings.Contains(body, "&lt;b&gt;gone&lt;/b&gt;") {
		t.Fatalf("expected escaped message, got %q", body)
	}
	if !strings.Contains(body, "<title>404 • News Recommendations</title>") {
		t.Fatalf("expected page title, got %q", body)
	}
}

func TestEditorPageListsAssetsAndForms(t *testing.T) {
	t.Parallel()

	data := EditorPageData{
		RecordID:      7,
		RecordTitle:   "Story",
		RecordType:    "recommendation",
		AllowedBlocks: []string{"news-recommendations/recommendation"},
		Scripts: []AssetView{{
			Handle:       "news-recommendations",
			URL:          "/static/js/editor.js?ver=1",
			Translations: `{"x":"</script>"}`,
		}},
		Styles: []AssetView{{Handle: "news-recommendations", URL: "/static/css/editor.css?ver=1"}},
		Forms:  []templ.Component{RawHTML(`<fieldset id="block"></fieldset>`)},
	}

	var buf bytes.Buffer
	if err := EditorPage(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	body := buf.String()
	for _, want := range []string{
		`<link rel="stylesheet" id="news-recommendations-css" href="/static/css/editor.css?ver=1">`,
		`<script id="news-recommendations-js" src="/static/js/editor.js?ver=1"></script>`,
		`<code>news-recommendations/recommendation</code>`,
		`<fieldset id="block"></fieldset>`,
		`<\/script>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q, got %q", want, body)
		}
	}
}
