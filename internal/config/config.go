package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Crawl    CrawlConfig
	LLM      LLMConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig selects the store. An empty URL runs on the in-memory store.
type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MigrateOnStart bool
}

// CrawlConfig tunes fetching, adapters and enrichment batching.
type CrawlConfig struct {
	FetchTimeout  time.Duration
	FetchRetries  int
	RetryDelay    time.Duration
	DetailDelay   time.Duration
	MaxItems      int
	BatchSize     int
	SelectorsFile string
	Schedule      string // Cron expression; empty disables scheduled crawls
	KoreanSources []string
}

// LLMConfig selects and tunes the translation model.
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Minute // Crawl endpoints respond when the run ends
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultMaxConnections = 20

	defaultFetchTimeout = 15 * time.Second
	defaultFetchRetries = 2
	defaultRetryDelay   = 1 * time.Second
	defaultDetailDelay  = 700 * time.Millisecond
	defaultMaxItems     = 8
	minMaxItems         = 5
	maxMaxItems         = 10
	defaultBatchSize    = 10

	defaultLLMProvider    = "openai"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultTemperature    = 0.2
	defaultMaxTokens      = 4000
	defaultLLMTimeout     = 60 * time.Second
)

var defaultKoreanSources = []string{"yonhap", "insidevina"}

// LoadDotEnv loads .env.local then .env from the working directory. Variables
// already set in the environment win; missing files are ignored.
func LoadDotEnv() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL:            os.Getenv("DATABASE_URL"),
			MaxConnections: defaultMaxConnections,
			MigrateOnStart: true,
		},
		Crawl: CrawlConfig{
			FetchTimeout:  defaultFetchTimeout,
			FetchRetries:  defaultFetchRetries,
			RetryDelay:    defaultRetryDelay,
			DetailDelay:   defaultDetailDelay,
			MaxItems:      defaultMaxItems,
			BatchSize:     defaultBatchSize,
			SelectorsFile: os.Getenv("SELECTORS_FILE"),
			Schedule:      strings.TrimSpace(os.Getenv("CRAWL_SCHEDULE")),
			KoreanSources: defaultKoreanSources,
		},
		LLM: LLMConfig{
			Provider:    defaultLLMProvider,
			Temperature: defaultTemperature,
			MaxTokens:   defaultMaxTokens,
			Timeout:     defaultLLMTimeout,
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("DATABASE_MAX_CONNECTIONS"); v != "" {
		n, err := parsePositive(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DATABASE_MAX_CONNECTIONS: %w", err)
		}
		cfg.Database.MaxConnections = n
	}

	if v := os.Getenv("DATABASE_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DATABASE_MIGRATE: must be a boolean")
		}
		cfg.Database.MigrateOnStart = b
	}

	if err := loadCrawl(&cfg.Crawl); err != nil {
		return Config{}, err
	}
	if err := loadLLM(&cfg.LLM); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadCrawl(c *CrawlConfig) error {
	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil || d == 0 {
			return fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: must be a positive integer")
		}
		c.FetchTimeout = d
	}

	if v := os.Getenv("FETCH_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid FETCH_RETRIES: must be a non-negative integer")
		}
		c.FetchRetries = n
	}

	if v := os.Getenv("CRAWL_DETAIL_DELAY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return fmt.Errorf("invalid CRAWL_DETAIL_DELAY_MS: must be a non-negative integer")
		}
		c.DetailDelay = time.Duration(ms) * time.Millisecond
	}

	if v := os.Getenv("CRAWL_MAX_ITEMS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minMaxItems || n > maxMaxItems {
			return fmt.Errorf("invalid CRAWL_MAX_ITEMS: must be between %d and %d", minMaxItems, maxMaxItems)
		}
		c.MaxItems = n
	}

	if v := os.Getenv("ENRICH_BATCH_SIZE"); v != "" {
		n, err := parsePositive(v)
		if err != nil {
			return fmt.Errorf("invalid ENRICH_BATCH_SIZE: %w", err)
		}
		c.BatchSize = n
	}

	if v, ok := os.LookupEnv("KOREAN_SOURCES"); ok {
		c.KoreanSources = splitList(v)
	}
	return nil
}

func loadLLM(c *LLMConfig) error {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	switch c.Provider {
	case "openai":
		c.Model = defaultOpenAIModel
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		c.Model = defaultAnthropicModel
		c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	default:
		return fmt.Errorf("invalid LLM_PROVIDER: must be 'openai' or 'anthropic'")
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.APIKey = v
	}

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid LLM_TEMPERATURE: must be between 0 and 2")
		}
		c.Temperature = float32(f)
	}

	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		n, err := parsePositive(v)
		if err != nil {
			return fmt.Errorf("invalid LLM_MAX_TOKENS: %w", err)
		}
		c.MaxTokens = n
	}

	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil || d == 0 {
			return fmt.Errorf("invalid LLM_TIMEOUT_SECONDS: must be a positive integer")
		}
		c.Timeout = d
	}
	return nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositive(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
