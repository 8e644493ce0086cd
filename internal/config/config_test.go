package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.DBDriver != "sqlite3" {
		t.Errorf("DBDriver = %q, want sqlite3", cfg.DBDriver)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
	if cfg.CategoryCacheTTL != time.Minute {
		t.Errorf("CategoryCacheTTL = %v, want 1m", cfg.CategoryCacheTTL)
	}
	if cfg.BodyBudget != 2000 {
		t.Errorf("BodyBudget = %d, want 2000", cfg.BodyBudget)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TOOLSHELF_DB_DRIVER", "postgres")
	t.Setenv("TOOLSHELF_DB_DSN", "postgres://shelf@localhost/shelf?sslmode=disable")
	t.Setenv("TOOLSHELF_FETCH_TIMEOUT", "2s")
	t.Setenv("TOOLSHELF_ALLOWED_ORIGINS", `"https://a.example", https://b.example`)
	t.Setenv("TOOLSHELF_FALLBACK_CATEGORY_ID", "misc")

	cfg := Load()
	if cfg.DBDriver != "postgres" || !strings.HasPrefix(cfg.DBDSN, "postgres://") {
		t.Errorf("DB = %q %q", cfg.DBDriver, cfg.DBDSN)
	}
	if cfg.FetchTimeout != 2*time.Second {
		t.Errorf("FetchTimeout = %v, want 2s", cfg.FetchTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.FallbackCategoryID != "misc" {
		t.Errorf("FallbackCategoryID = %q", cfg.FallbackCategoryID)
	}
}

func TestLoadPanicsOnInvalidCombination(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"TOOLSHELF_DB_DRIVER": "mysql"},
		},
		{
			name: "postgres with sqlite dsn",
			env:  map[string]string{"TOOLSHELF_DB_DRIVER": "postgres"},
		},
		{
			name: "redis password without addr",
			env:  map[string]string{"TOOLSHELF_REDIS_PASSWORD": "secret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{
		DBDriver:      "postgres",
		DBDSN:         "postgres://u:p@h/db",
		GenAIAPIKey:   "key",
		RedisPassword: "pw",
	}
	r := cfg.Redacted()
	for _, v := range []string{r.DBDSN, r.GenAIAPIKey, r.RedisPassword} {
		if v != "***REDACTED***" {
			t.Errorf("field not redacted: %q", v)
		}
	}
	if cfg.GenAIAPIKey != "key" {
		t.Error("Redacted() modified the receiver")
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "TEST_BOOL", value: "true", def: false, expected: true},
		{name: "false value", key: "TEST_BOOL_FALSE", value: "false", def: true, expected: false},
		{name: "invalid value uses default", key: "TEST_BOOL_INVALID", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", key: "TEST_BOOL_MISSING", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , 'b', \"c\" ,,", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
