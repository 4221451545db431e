// Package config loads service settings from the environment (and an optional
// .env file) plus scoring tunables from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Log      LogConfig
	Server   ServerConfig
	Storage  StorageConfig
	Upstream UpstreamConfig
	Solana   SolanaConfig
	Social   SocialConfig
	Watch    WatchConfig
	Report   ReportConfig
	Cache    CacheConfig

	// TunablesFile is an optional YAML file with scoring constants.
	TunablesFile string
}

// LogConfig controls the root logger.
type LogConfig struct {
	Level  string
	Pretty bool
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string
	CORSOrigins    []string
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ShutdownGrace  time.Duration
}

// StorageConfig selects the journal backend.
type StorageConfig struct {
	UseMemory     bool
	PostgresDSN   string
	ClickhouseDSN string
	WriteTimeout  time.Duration
}

// UpstreamConfig applies to the HTTP market and security collaborators.
type UpstreamConfig struct {
	DexScreenerURL string
	RugCheckURL    string
	Timeout        time.Duration
	MaxRetries     int
	RPS            float64
	Burst          int
}

// SolanaConfig points at the JSON-RPC and WebSocket endpoints.
type SolanaConfig struct {
	RPCURL string
	WSURL  string
	RPS    float64
}

// SocialConfig holds post provider credentials. Providers without a
// credential are skipped.
type SocialConfig struct {
	SocialDataKey      string
	SocialDataURL      string
	TwitterBearerToken string
	MaxPosts           int
	RPS                float64
}

// WatchConfig controls the launch watcher.
type WatchConfig struct {
	Enabled      bool
	Programs     []string
	Workers      int
	QueueSize    int
	AnalyzeDelay time.Duration
	Sentiment    bool
}

// ReportConfig controls the scheduled report job.
type ReportConfig struct {
	Schedule  string // cron expression; empty disables the job
	OutputDir string
	Window    time.Duration
	TopN      int
}

// CacheConfig sizes the result caches.
type CacheConfig struct {
	AnalysisTTL  time.Duration
	SentimentTTL time.Duration
	MaxEntries   int
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Pretty: envBool("LOG_PRETTY", false),
		},
		Server: ServerConfig{
			Addr:           envOr("HTTP_ADDR", ":8080"),
			CORSOrigins:    envList("CORS_ORIGINS", []string{"*"}),
			RequestTimeout: envDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
			ReadTimeout:    envDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   envDuration("HTTP_WRITE_TIMEOUT", 45*time.Second),
			ShutdownGrace:  envDuration("SHUTDOWN_GRACE", 10*time.Second),
		},
		Storage: StorageConfig{
			UseMemory:     envBool("USE_MEMORY", false),
			PostgresDSN:   os.Getenv("POSTGRES_DSN"),
			ClickhouseDSN: os.Getenv("CLICKHOUSE_DSN"),
			WriteTimeout:  envDuration("JOURNAL_WRITE_TIMEOUT", 5*time.Second),
		},
		Upstream: UpstreamConfig{
			DexScreenerURL: envOr("DEXSCREENER_URL", "https://api.dexscreener.com"),
			RugCheckURL:    envOr("RUGCHECK_URL", "https://api.rugcheck.xyz"),
			Timeout:        envDuration("UPSTREAM_TIMEOUT", 15*time.Second),
			MaxRetries:     envInt("UPSTREAM_MAX_RETRIES", 3),
			RPS:            envFloat("UPSTREAM_RPS", 5),
			Burst:          envInt("UPSTREAM_BURST", 5),
		},
		Solana: SolanaConfig{
			RPCURL: envOr("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
			WSURL:  envOr("SOLANA_WS_URL", "wss://api.mainnet-beta.solana.com"),
			RPS:    envFloat("SOLANA_RPS", 10),
		},
		Social: SocialConfig{
			SocialDataKey:      os.Getenv("SOCIALDATA_API_KEY"),
			SocialDataURL:      envOr("SOCIALDATA_URL", "https://api.socialdata.tools"),
			TwitterBearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
			MaxPosts:           envInt("SOCIAL_MAX_POSTS", 50),
			RPS:                envFloat("SOCIAL_RPS", 2),
		},
		Watch: WatchConfig{
			Enabled:      envBool("WATCH_ENABLED", false),
			Programs:     envList("WATCH_PROGRAMS", []string{"pumpfun", "raydium"}),
			Workers:      envInt("WATCH_WORKERS", 4),
			QueueSize:    envInt("WATCH_QUEUE_SIZE", 256),
			AnalyzeDelay: envDuration("WATCH_ANALYZE_DELAY", 30*time.Second),
			Sentiment:    envBool("WATCH_SENTIMENT", false),
		},
		Report: ReportConfig{
			Schedule:  envOr("REPORT_SCHEDULE", "0 */6 * * *"),
			OutputDir: envOr("REPORT_OUTPUT_DIR", "output"),
			Window:    envDuration("REPORT_WINDOW", 24*time.Hour),
			TopN:      envInt("REPORT_TOP_N", 10),
		},
		Cache: CacheConfig{
			AnalysisTTL:  envDuration("ANALYSIS_CACHE_TTL", 60*time.Second),
			SentimentTTL: envDuration("SENTIMENT_CACHE_TTL", 300*time.Second),
			MaxEntries:   envInt("CACHE_MAX_ENTRIES", 10_000),
		},
		TunablesFile: os.Getenv("TUNABLES_FILE"),
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if !c.Storage.UseMemory && (c.Storage.PostgresDSN == "" || c.Storage.ClickhouseDSN == "") {
		errs = append(errs, errors.New("POSTGRES_DSN and CLICKHOUSE_DSN are required unless USE_MEMORY is set"))
	}
	if c.Solana.RPCURL == "" {
		errs = append(errs, errors.New("SOLANA_RPC_URL is required"))
	}
	if c.Watch.Enabled {
		if c.Solana.WSURL == "" {
			errs = append(errs, errors.New("SOLANA_WS_URL is required when the watcher is enabled"))
		}
		if len(c.Watch.Programs) == 0 {
			errs = append(errs, errors.New("WATCH_PROGRAMS is empty"))
		}
	}
	if c.Report.Window <= 0 {
		errs = append(errs, fmt.Errorf("REPORT_WINDOW must be positive, got %s", c.Report.Window))
	}
	if c.Cache.AnalysisTTL <= 0 || c.Cache.SentimentTTL <= 0 {
		errs = append(errs, errors.New("cache TTLs must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// envDuration accepts Go durations ("90s") or bare seconds ("90").
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return splitTrim(v)
}

func splitTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
