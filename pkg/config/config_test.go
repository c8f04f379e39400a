package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scraper.ScrollWaitTime != 2*time.Second {
		t.Errorf("Expected default scroll wait time to be 2s, got %v", cfg.Scraper.ScrollWaitTime)
	}
	if cfg.Scraper.MaxRetries != 3 {
		t.Errorf("Expected default max retries to be 3, got %d", cfg.Scraper.MaxRetries)
	}
	if cfg.Scraper.MaxScrolls != 200 {
		t.Errorf("Expected default max scrolls to be 200, got %d", cfg.Scraper.MaxScrolls)
	}
	if cfg.Output.Directory != "./output" {
		t.Errorf("Expected default output directory to be ./output, got %s", cfg.Output.Directory)
	}
	if !cfg.Browser.Headless {
		t.Error("Expected headless to default to true")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("THREADSCRAPER_SCROLL_WAIT_TIME", "4")
	os.Setenv("THREADSCRAPER_MAX_RETRIES", "10")
	os.Setenv("THREADSCRAPER_OUTPUT_DIR", "/tmp/reposts")
	os.Setenv("THREADSCRAPER_HEADLESS", "false")
	os.Setenv("THREADSCRAPER_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("THREADSCRAPER_SCROLL_WAIT_TIME")
		os.Unsetenv("THREADSCRAPER_MAX_RETRIES")
		os.Unsetenv("THREADSCRAPER_OUTPUT_DIR")
		os.Unsetenv("THREADSCRAPER_HEADLESS")
		os.Unsetenv("THREADSCRAPER_LOG_LEVEL")
	}()

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if cfg.Scraper.ScrollWaitTime != 4*time.Second {
		t.Errorf("Expected scroll wait time 4s, got %v", cfg.Scraper.ScrollWaitTime)
	}
	if cfg.Scraper.MaxRetries != 10 {
		t.Errorf("Expected max retries 10, got %d", cfg.Scraper.MaxRetries)
	}
	if cfg.Output.Directory != "/tmp/reposts" {
		t.Errorf("Expected output directory /tmp/reposts, got %s", cfg.Output.Directory)
	}
	if cfg.Browser.Headless {
		t.Error("Expected headless to be disabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
scraper:
  scroll_wait_time: 3s
  max_retries: 5
output:
  directory: /tmp/out
logging:
  level: warn
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if cfg.Scraper.ScrollWaitTime != 3*time.Second {
		t.Errorf("Expected scroll wait time 3s, got %v", cfg.Scraper.ScrollWaitTime)
	}
	if cfg.Scraper.MaxRetries != 5 {
		t.Errorf("Expected max retries 5, got %d", cfg.Scraper.MaxRetries)
	}
	if cfg.Output.Directory != "/tmp/out" {
		t.Errorf("Expected output directory /tmp/out, got %s", cfg.Output.Directory)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.Logging.Level)
	}
}

func TestValidateRejectsNonPositiveParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero wait time", func(c *Config) { c.Scraper.ScrollWaitTime = 0 }},
		{"negative wait time", func(c *Config) { c.Scraper.ScrollWaitTime = -time.Second }},
		{"zero max retries", func(c *Config) { c.Scraper.MaxRetries = 0 }},
		{"negative max retries", func(c *Config) { c.Scraper.MaxRetries = -1 }},
		{"zero max scrolls", func(c *Config) { c.Scraper.MaxScrolls = 0 }},
		{"negative max posts", func(c *Config) { c.Scraper.MaxPosts = -1 }},
		{"empty output directory", func(c *Config) { c.Output.Directory = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	valid := map[string]string{
		"john.doe": "john.doe",
		"john_doe": "john_doe",
		"@johndoe": "johndoe",
		"a":        "a",
		"user123":  "user123",
	}
	for input, want := range valid {
		got, err := ValidateUsername(input)
		if err != nil {
			t.Errorf("ValidateUsername(%q) unexpected error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ValidateUsername(%q) = %q, want %q", input, got, want)
		}
	}

	invalid := []string{
		"",
		".bad",
		"bad.",
		"a..b",
		"way-too-long-username-exceeding-thirty-characters",
		"has space",
		"semi;colon",
	}
	for _, input := range invalid {
		if _, err := ValidateUsername(input); err == nil {
			t.Errorf("ValidateUsername(%q) expected error, got nil", input)
		}
	}
}
