// Package bootstrap composes the recommendations service from its configuration.
package bootstrap

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"newsrecs/app/internal/auth"
	"newsrecs/app/internal/blocks"
	"newsrecs/app/internal/config"
	"newsrecs/app/internal/content"
	appdb "newsrecs/app/internal/db"
	apphttp "newsrecs/app/internal/http"
	"newsrecs/app/internal/i18n"
	"newsrecs/app/internal/llm"
	"newsrecs/app/internal/metrics"
	"newsrecs/app/internal/recommendation"
	"newsrecs/app/internal/theme"
	"newsrecs/app/internal/widget"
)

type Dependencies struct {
	Config    *config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	HTTPServer *apphttp.Server
	Database   *gorm.DB
	Store      *content.Store
	Plugin     *recommendation.Plugin
	Widgets    *widget.Service
	Cleanup    func() error
}

// Build opens the database, registers the plugin with every host registry and returns the
// HTTP server. Cleanup stops the sidebar watcher and closes the database.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	cfg := deps.Config
	if cfg == nil {
		return Result{}, eris.New("config is required")
	}
	logger := deps.Logger

	db, err := appdb.Open(appdb.Options{
		Driver: cfg.DBDriver,
		Path:   cfg.DBPath,
		DSN:    cfg.DBDSN,
	})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	var cleanups []func() error
	cleanup := func() error {
		var first error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	cleanups = append(cleanups, func() error { return appdb.Close(db) })

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := cleanup(); closeErr != nil && logger != nil {
			logger.WithError(closeErr).Error("cleaning up after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := content.Migrate(ctx, db, logger); err != nil {
		return closeOnError(eris.Wrap(err, "running content migrations"))
	}
	if err := widget.Migrate(ctx, db, logger); err != nil {
		return closeOnError(eris.Wrap(err, "running widget migrations"))
	}

	repo, err := content.NewRepository(db, logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating content repository"))
	}

	types := content.NewTypeRegistry()
	if err := content.RegisterCoreTypes(types); err != nil {
		return closeOnError(err)
	}
	meta := content.NewMetaRegistry(types, logger)

	store, err := content.NewStore(repo, types, meta, logger, deps.SentryHub)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating content store"))
	}

	translator, err := i18n.Load(i18n.Options{
		Dir:    cfg.LanguagesDir,
		Domain: recommendation.TextDomain,
		Locale: cfg.Locale,
		Logger: logger,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "loading translations"))
	}

	var editor *blocks.Editor
	if cfg.BlockEditor {
		editor, err = blocks.NewEditor(blocks.NewRegistry(), blocks.NewAssets(), logger)
		if err != nil {
			return closeOnError(eris.Wrap(err, "creating block editor"))
		}
	}

	permalinks := content.NewPermalinks(cfg.SiteURL, types)

	renderer := theme.NewRenderer()
	if err := renderer.Register(theme.RecommendationPart, theme.RecommendationFragment(permalinks, recommendation.SourceKey)); err != nil {
		return closeOnError(eris.Wrap(err, "registering theme fragments"))
	}

	widgetRegistry := widget.NewRegistry()
	plugin := recommendation.New(recommendation.StaticCapabilities{
		Editor:       cfg.BlockEditor,
		Translations: cfg.ScriptTranslations,
	}, translator, logger)

	if err := plugin.Register(recommendation.Host{
		Types:      types,
		Meta:       meta,
		Permalinks: permalinks,
		Editor:     editor,
		Widgets:    widgetRegistry,
		Store:      store,
		Theme:      renderer,
	}); err != nil {
		return closeOnError(eris.Wrap(err, "registering news recommendations"))
	}

	fallbackSidebars := widget.DefaultSidebars(recommendation.WidgetIDBase)
	sidebars, err := widget.LoadSidebars(cfg.SidebarsFile, fallbackSidebars)
	if err != nil {
		return closeOnError(err)
	}

	instances, err := widget.NewInstanceRepository(db, logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating widget repository"))
	}

	widgets, err := widget.NewService(widget.ServiceOptions{
		Registry:   widgetRegistry,
		Repository: instances,
		Sidebars:   sidebars,
		Logger:     logger,
		SentryHub:  deps.SentryHub,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating widget service"))
	}
	if err := widgets.Seed(ctx); err != nil {
		return closeOnError(eris.Wrap(err, "seeding sidebars"))
	}

	if cfg.WatchSidebars {
		watcher, err := widget.NewSidebarWatcher(widget.WatcherOptions{
			Path:     cfg.SidebarsFile,
			Fallback: fallbackSidebars,
			Apply:    widgets.SetSidebars,
			Logger:   logger,
		})
		if err != nil {
			return closeOnError(eris.Wrap(err, "creating sidebars watcher"))
		}
		if err := watcher.Start(); err != nil {
			return closeOnError(eris.Wrap(err, "starting sidebars watcher"))
		}
		cleanups = append(cleanups, watcher.Stop)
	}

	if strings.TrimSpace(cfg.EditorTokenSecret) == "" {
		return closeOnError(eris.New("EDITOR_TOKEN_SECRET is required"))
	}
	tokens, err := auth.NewTokens(cfg.EditorTokenSecret, cfg.EditorTokenTTL)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating editor tokens"))
	}

	suggester, err := buildSuggester(cfg, logger)
	if err != nil {
		return closeOnError(err)
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		Store:      store,
		Permalinks: permalinks,
		Editor:     editor,
		Widgets:    widgets,
		Theme:      renderer,
		Tokens:     tokens,
		Suggester:  suggester,
		Metrics:    collector,
		Database:   db,
		Logger:     logger,
		SentryHub:  deps.SentryHub,
		RateLimiter: apphttp.RateLimiterSettings{
			Burst:             cfg.RateLimit.Burst,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	return Result{
		HTTPServer: httpServer,
		Database:   db,
		Store:      store,
		Plugin:     plugin,
		Widgets:    widgets,
		Cleanup:    cleanup,
	}, nil
}

// buildSuggester returns nil when no LLM key is configured; suggestions are optional.
func buildSuggester(cfg *config.Config, logger *logrus.Logger) (llm.SourceSuggester, error) {
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		if logger != nil {
			logger.Info("LLM_API_KEY not set, source suggestions disabled")
		}
		return nil, nil
	}
	if strings.TrimSpace(cfg.LLMModel) == "" {
		return nil, eris.New("LLM_MODEL is required when LLM_API_KEY is set")
	}

	client, err := llm.NewClient(llm.ClientOptions{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMEndpoint,
		Logger:  logger,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating llm client")
	}

	suggester, err := llm.NewSourceSuggester(llm.SuggesterOptions{Client: client, Model: cfg.LLMModel})
	if err != nil {
		return nil, eris.Wrap(err, "initialising source suggester")
	}
	return suggester, nil
}
