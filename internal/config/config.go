package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the recommendations server.
type Config struct {
	DBDriver           string
	DBPath             string
	DBDSN              string
	ServerPort         int
	LogLevel           string
	SentryDSN          string
	Environment        string
	ShutdownGrace      time.Duration
	SiteURL            string
	Locale             string
	LanguagesDir       string
	SidebarsFile       string
	WatchSidebars      bool
	MetricsEnabled     bool
	BlockEditor        bool
	ScriptTranslations bool
	EditorTokenSecret  string
	EditorTokenTTL     time.Duration
	LLMEndpoint        string
	LLMAPIKey          string
	LLMModel           string
	RateLimit          RateLimit
}

// RateLimit configures the per-client token bucket in front of the HTTP API.
type RateLimit struct {
	Burst             int
	RequestsPerSecond float64
	ClientTTL         time.Duration
}

const (
	defaultDBDriver       = "sqlite"
	defaultDBPath         = "./data/recommendations.db"
	defaultServerPort     = 8080
	defaultLogLevel       = "info"
	defaultEnvironment    = "development"
	defaultShutdownGrace  = 10 * time.Second
	defaultSiteURL        = "http://localhost:8080"
	defaultLocale         = "en"
	defaultLanguagesDir   = "./languages"
	defaultEditorTokenTTL = 24 * time.Hour
	defaultRateBurst      = 30
	defaultRateRPS        = 10
	defaultRateClientTTL  = 5 * time.Minute
)

var supportedDrivers = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mysql":    {},
}

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", defaultDBDriver)),
		DBPath:            getEnv("DB_PATH", defaultDBPath),
		DBDSN:             os.Getenv("DB_DSN"),
		LogLevel:          getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		Environment:       getEnv("ENV", defaultEnvironment),
		ShutdownGrace:     defaultShutdownGrace,
		SiteURL:           strings.TrimRight(getEnv("SITE_URL", defaultSiteURL), "/"),
		Locale:            getEnv("LOCALE", defaultLocale),
		LanguagesDir:      getEnv("LANGUAGES_DIR", defaultLanguagesDir),
		SidebarsFile:      os.Getenv("SIDEBARS_FILE"),
		EditorTokenSecret: os.Getenv("EDITOR_TOKEN_SECRET"),
		LLMEndpoint:       os.Getenv("LLM_ENDPOINT"),
		LLMAPIKey:         os.Getenv("LLM_API_KEY"),
		LLMModel:          os.Getenv("LLM_MODEL"),
	}

	if _, ok := supportedDrivers[cfg.DBDriver]; !ok {
		return nil, eris.Errorf("unsupported DB_DRIVER value: %s", cfg.DBDriver)
	}
	if cfg.DBDriver != defaultDBDriver && cfg.DBDSN == "" {
		return nil, eris.Errorf("DB_DSN is required for driver %s", cfg.DBDriver)
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	if cfg.BlockEditor, err = getBool("BLOCK_EDITOR", true); err != nil {
		return nil, err
	}
	if cfg.ScriptTranslations, err = getBool("SCRIPT_TRANSLATIONS", true); err != nil {
		return nil, err
	}
	if cfg.WatchSidebars, err = getBool("SIDEBARS_WATCH", false); err != nil {
		return nil, err
	}
	if cfg.WatchSidebars && strings.TrimSpace(cfg.SidebarsFile) == "" {
		return nil, eris.New("SIDEBARS_WATCH requires SIDEBARS_FILE")
	}
	if cfg.MetricsEnabled, err = getBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.EditorTokenTTL, err = getDuration("EDITOR_TOKEN_TTL", defaultEditorTokenTTL); err != nil {
		return nil, err
	}

	if cfg.RateLimit, err = loadRateLimit(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadRateLimit() (RateLimit, error) {
	limit := RateLimit{
		Burst:             defaultRateBurst,
		RequestsPerSecond: defaultRateRPS,
		ClientTTL:         defaultRateClientTTL,
	}

	if raw := os.Getenv("RATE_LIMIT_BURST"); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil {
			return RateLimit{}, eris.Wrapf(err, "invalid RATE_LIMIT_BURST value: %s", raw)
		}
		limit.Burst = burst
	}

	if raw := os.Getenv("RATE_LIMIT_RPS"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return RateLimit{}, eris.Wrapf(err, "invalid RATE_LIMIT_RPS value: %s", raw)
		}
		limit.RequestsPerSecond = rps
	}

	ttl, err := getDuration("RATE_LIMIT_CLIENT_TTL", defaultRateClientTTL)
	if err != nil {
		return RateLimit{}, err
	}
	limit.ClientTTL = ttl

	return limit, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}
