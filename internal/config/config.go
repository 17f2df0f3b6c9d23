package config

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Spoonacular SpoonacularConfig `json:"spoonacular"`
	Browser     BrowserConfig     `json:"browser"`
	Storage     StorageConfig     `json:"storage"`
	Azure       AzureConfig       `json:"azure"`
	Logs        LogsConfig        `json:"logs"`
	Clarity     ClarityConfig     `json:"clarity"`
}

type SpoonacularConfig struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
	// RetryMax is zero unless set; the site never retries by default.
	RetryMax        int `json:"retry_max"`
	BreakerFailures int `json:"breaker_failures"`
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client `json:"-"`
}

type BrowserConfig struct {
	PageSize   int           `json:"page_size"`
	SettleWait time.Duration `json:"settle_wait"`
	SessionTTL time.Duration `json:"session_ttl"`
}

// StorageConfig picks the key-value backend behind the liked set.
// Backend is one of memory, file, azure, redis, sqlite. Empty means detect.
type StorageConfig struct {
	Backend    string `json:"backend"`
	Dir        string `json:"dir"`
	Container  string `json:"container"`
	RedisURL   string `json:"redis_url"`
	SQLitePath string `json:"sqlite_path"`
}

type AzureConfig struct {
	AccountName string `json:"account_name"`
	AccountKey  string `json:"-"`
}

type LogsConfig struct {
	Container  string        `json:"container"`
	BlobName   string        `json:"blob_name"`
	FlushEvery time.Duration `json:"flush_every"`
}

type ClarityConfig struct {
	ProjectID string `json:"project_id"`
}

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendAzure  = "azure"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

func Load() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	config := &Config{
		Spoonacular: SpoonacularConfig{
			APIKey:          os.Getenv("SPOONACULAR_API_KEY"),
			BaseURL:         getEnvOrDefault("SPOONACULAR_BASE_URL", "https://api.spoonacular.com"),
			Timeout:         getDurationEnv("SPOONACULAR_TIMEOUT", 10*time.Second),
			RetryMax:        getIntEnv("SPOONACULAR_RETRY_MAX", 0),
			BreakerFailures: getIntEnv("SPOONACULAR_BREAKER_FAILURES", 5),
		},
		Browser: BrowserConfig{
			PageSize:   getIntEnv("RESULTS_PER_PAGE", 6),
			SettleWait: getDurationEnv("SETTLE_WAIT", 1500*time.Millisecond),
			SessionTTL: getDurationEnv("SESSION_TTL", 24*time.Hour),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(os.Getenv("STORAGE_BACKEND")),
			Dir:        getEnvOrDefault("STORAGE_DIR", "data"),
			Container:  getEnvOrDefault("STORAGE_CONTAINER", "liked"),
			RedisURL:   os.Getenv("REDIS_URL"),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "data/zest.db"),
		},
		Azure: AzureConfig{
			AccountName: os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			AccountKey:  os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
		},
		Logs: LogsConfig{
			Container:  os.Getenv("LOGS_CONTAINER"),
			BlobName:   os.Getenv("LOGS_BLOB_NAME"),
			FlushEvery: getDurationEnv("LOGS_FLUSH_EVERY", 2*time.Second),
		},
		Clarity: ClarityConfig{
			ProjectID: os.Getenv("CLARITY_PROJECT_ID"),
		},
	}

	if config.Storage.Backend == "" {
		config.Storage.Backend = detectBackend(config)
	}

	return config, nil
}

func detectBackend(c *Config) string {
	switch {
	case c.Storage.RedisURL != "":
		return BackendRedis
	case c.Azure.AccountName != "":
		return BackendAzure
	default:
		return BackendFile
	}
}

// Validate checks the settings the web server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Spoonacular.APIKey) == "" {
		errs = append(errs, errors.New("SPOONACULAR_API_KEY is required"))
	}
	if c.Browser.PageSize <= 0 {
		errs = append(errs, errors.New("RESULTS_PER_PAGE must be positive"))
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis backend"))
		}
	case BackendAzure:
		if c.Azure.AccountName == "" || c.Azure.AccountKey == "" {
			errs = append(errs, errors.New("AZURE_STORAGE_ACCOUNT_NAME and AZURE_STORAGE_PRIMARY_ACCOUNT_KEY are required for the azure backend"))
		}
	default:
		errs = append(errs, errors.New("unknown STORAGE_BACKEND "+c.Storage.Backend))
	}
	return errors.Join(errs...)
}

// LogSinkEnabled reports whether logs should also be shipped to blob storage.
func (c *Config) LogSinkEnabled() bool {
	return c.Logs.Container != "" && c.Azure.AccountName != "" && c.Azure.AccountKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
		slog.Warn("ignoring invalid integer setting", "key", key, "value", value)
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		// "1m", "1500ms"
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// bare integer seconds
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
		slog.Warn("ignoring invalid duration setting", "key", key, "value", value)
	}
	return fallback
}
