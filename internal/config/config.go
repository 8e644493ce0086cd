package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request budget for CRUD routes
	AnalyzeTimeout  time.Duration // per-request budget for /analyze-url

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Catalog storage
	DBDriver string // "sqlite3" | "postgres" | "memory"
	DBDSN    string // ex: "file:/data/toolshelf.db" or "postgres://..."
	SeedFile string // optional YAML seed applied when the catalog has no categories

	// Analysis pipeline
	GenAIAPIKey        string        // empty => extraction reports ExtractionConfigError
	GenAIModel         string        // ex: "gemini-2.5-flash"
	FetchTimeout       time.Duration // hard wall clock for one page fetch
	FetchMaxBytes      int64         // response bytes read before truncation
	FetchUserAgent     string
	BodyBudget         int           // body excerpt length in runes
	CategoryCacheTTL   time.Duration // known-categories snapshot lifetime
	FallbackCategoryID string        // optional, used when the model picks an unknown category
	AnalyzeRatePerMin  int           // per-IP analyses per minute, 0 = unlimited

	// Redis (optional, shares the known-categories list between replicas)
	RedisAddr           string        // empty => Redis disabled
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	RedisCacheTTL       time.Duration // lifetime of the shared list

	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict /readyz to specific networks (e.g. "10.0.0.0/8")
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	AllowedOrigins []string // CORS origins, empty => "*"
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("TOOLSHELF_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("TOOLSHELF_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("TOOLSHELF_REQUEST_TIMEOUT", 15*time.Second),
		AnalyzeTimeout:  mustDuration("TOOLSHELF_ANALYZE_TIMEOUT", 45*time.Second),

		// Logging
		LogLevel:  getenv("TOOLSHELF_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TOOLSHELF_PRETTY_LOG", true),

		// Storage
		DBDriver: getenv("TOOLSHELF_DB_DRIVER", "sqlite3"),
		DBDSN:    getenv("TOOLSHELF_DB_DSN", "file:toolshelf.db"),
		SeedFile: getenv("TOOLSHELF_SEED_FILE", ""),

		// Analysis
		GenAIAPIKey:        getenv("TOOLSHELF_GENAI_API_KEY", ""),
		GenAIModel:         getenv("TOOLSHELF_GENAI_MODEL", "gemini-2.5-flash"),
		FetchTimeout:       mustDuration("TOOLSHELF_FETCH_TIMEOUT", 5*time.Second),
		FetchMaxBytes:      int64(getenvInt("TOOLSHELF_FETCH_MAX_BYTES", 2<<20)),
		FetchUserAgent:     getenv("TOOLSHELF_FETCH_USER_AGENT", ""),
		BodyBudget:         getenvInt("TOOLSHELF_BODY_BUDGET", 2000),
		CategoryCacheTTL:   mustDuration("TOOLSHELF_CATEGORY_CACHE_TTL", time.Minute),
		FallbackCategoryID: getenv("TOOLSHELF_FALLBACK_CATEGORY_ID", ""),
		AnalyzeRatePerMin:  getenvInt("TOOLSHELF_ANALYZE_RATE_PER_MIN", 30),

		// Redis settings
		RedisAddr:           getenv("TOOLSHELF_REDIS_ADDR", ""),
		RedisUser:           getenv("TOOLSHELF_REDIS_USERNAME", ""),
		RedisPassword:       getenv("TOOLSHELF_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("TOOLSHELF_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		RedisCacheTTL:       mustDuration("TOOLSHELF_REDIS_CACHE_TTL", 5*time.Minute),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("TOOLSHELF_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   splitAndTrim(getenv("TOOLSHELF_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("TOOLSHELF_TRUST_PROXY", false),
		AllowedOrigins: splitAndTrim(getenv("TOOLSHELF_ALLOWED_ORIGINS", "")),
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite3", "memory":
	case "postgres":
		if c.DBDSN == "" || strings.HasPrefix(c.DBDSN, "file:") {
			return fmt.Errorf("TOOLSHELF_DB_DSN must be a postgres connection string when TOOLSHELF_DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported TOOLSHELF_DB_DRIVER %q", c.DBDriver)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("TOOLSHELF_FETCH_TIMEOUT must be > 0")
	}
	if c.BodyBudget <= 0 {
		return fmt.Errorf("TOOLSHELF_BODY_BUDGET must be > 0")
	}
	if c.RedisPassword != "" && c.RedisAddr == "" {
		return fmt.Errorf("TOOLSHELF_REDIS_PASSWORD is set but TOOLSHELF_REDIS_ADDR is empty")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.GenAIAPIKey != "" {
		cp.GenAIAPIKey = "***REDACTED***"
	}
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	if cp.DBDriver == "postgres" {
		cp.DBDSN = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
