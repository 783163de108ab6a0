package bootstrap

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsrecs/app/internal/config"
	applog "newsrecs/app/internal/log"
	"newsrecs/app/internal/widget"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	return &config.Config{
		DBDriver:           "sqlite",
		DBPath:             filepath.Join(dir, "recs.db"),
		SiteURL:            "https://news.example",
		Locale:             "en",
		LanguagesDir:       filepath.Join(dir, "languages"),
		BlockEditor:        true,
		ScriptTranslations: true,
		EditorTokenSecret:  "0123456789abcdef0123456789abcdef",
		EditorTokenTTL:     time.Hour,
		MetricsEnabled:     true,
		RateLimit: config.RateLimit{
			Burst:             10,
			RequestsPerSecond: 10,
			ClientTTL:         time.Minute,
		},
	}
}

func TestBuildWiresServerAndSeedsDefaultSidebar(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	result, err := Build(context.Background(), Dependencies{Config: cfg, Logger: applog.Discard()})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	t.Cleanup(func() { _ = result.Cleanup() })

	if result.Plugin.Widget() == nil {
		t.Fatalf("expected the widget to be registered")
	}

	sidebars := result.Widgets.Sidebars()
	if len(sidebars) != 1 || sidebars[0].ID != widget.DefaultSidebar {
		t.Fatalf("expected the default sidebar, got %+v", sidebars)
	}

	rec := httptest.NewRecorder()
	result.HTTPServer.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Fatalf("expected healthy server, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBuildRequiresTokenSecret(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.EditorTokenSecret = ""

	if _, err := Build(context.Background(), Dependencies{Config: cfg, Logger: applog.Discard()}); err == nil {
		t.Fatalf("expected error without a token secret")
	}
}

func TestBuildLoadsSidebarsFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.SidebarsFile = filepath.Join(t.TempDir(), "sidebars.yaml")
	cfg.WatchSidebars = true
	yaml := "sidebars:\n  - id: footer\n    name: Footer\n    widgets:\n      - widget: news-recommendations\n        settings:\n          title: Elsewhere\n"
	if err := os.WriteFile(cfg.SidebarsFile, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing sidebars file: %v", err)
	}

	result, err := Build(context.Background(), Dependencies{Config: cfg, Logger: applog.Discard()})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	t.Cleanup(func() { _ = result.Cleanup() })

	sidebars := result.Widgets.Sidebars()
	if len(sidebars) != 1 || sidebars[0].ID != "footer" {
		t.Fatalf("expected the configured sidebar, got %+v", sidebars)
	}

	rec := httptest.NewRecorder()
	result.HTTPServer.ServeHTTP(rec, httptest.NewRequest("GET", "/sidebars/footer", nil))
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Elsewhere") {
		t.Fatalf("expected no widget output without recommendations, got %q", rec.Body.String())
	}
}
