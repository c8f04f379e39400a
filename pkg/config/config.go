package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Threads scraper
type Config struct {
	// Scraping behavior
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// Browser settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Session persistence
	Session SessionConfig `yaml:"session" json:"session"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ScraperConfig holds the run parameters of the harvesting pipeline
type ScraperConfig struct {
	// ScrollWaitTime is the pause after each scroll before re-measuring
	ScrollWaitTime time.Duration `yaml:"scroll_wait_time" json:"scroll_wait_time"`
	// MaxRetries is the number of consecutive no-growth scrolls before
	// pagination is considered converged
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
	// MaxScrolls is the hard scroll ceiling. The listing has no
	// authoritative end-of-list signal, so this is a required safety
	// valve against pages that never stop growing.
	MaxScrolls int `yaml:"max_scrolls" json:"max_scrolls"`
	// MaxPosts caps the number of fresh records kept (0 means unlimited)
	MaxPosts int `yaml:"max_posts" json:"max_posts"`
	// SkipDedup disables cross-run duplicate filtering
	SkipDedup bool `yaml:"skip_dedup" json:"skip_dedup"`
	// ExpansionsPerMinute paces composite-thread side fetches
	ExpansionsPerMinute int `yaml:"expansions_per_minute" json:"expansions_per_minute"`
}

// BrowserConfig holds Chrome/chromedp settings
type BrowserConfig struct {
	Headless   bool          `yaml:"headless" json:"headless"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent"`
	ChromePath string        `yaml:"chrome_path" json:"chrome_path"`
	NavTimeout time.Duration `yaml:"nav_timeout" json:"nav_timeout"`
	// InitialWait is the pause after the listing first loads, before the
	// warmup nudge scroll
	InitialWait time.Duration `yaml:"initial_wait" json:"initial_wait"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// SessionConfig holds session storage configuration
type SessionConfig struct {
	// File is the fallback location for encrypted session state when the
	// system keychain is unavailable
	File string `yaml:"file" json:"file"`
	// Account names the stored session to use
	Account string `yaml:"account" json:"account"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			ScrollWaitTime:      2 * time.Second,
			MaxRetries:          3,
			MaxScrolls:          200,
			MaxPosts:            0,
			SkipDedup:           false,
			ExpansionsPerMinute: 20,
		},
		Browser: BrowserConfig{
			Headless:    true,
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Safari/537.36",
			NavTimeout:  60 * time.Second,
			InitialWait: 10 * time.Second,
		},
		Output: OutputConfig{
			Directory: "./output",
		},
		Session: SessionConfig{
			File:    defaultSessionFile(),
			Account: "default",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".threadscraper-session.enc"
	}
	return filepath.Join(home, ".config", "threadscraper", "session.enc")
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("THREADSCRAPER_SCROLL_WAIT_TIME"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Scraper.ScrollWaitTime = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("THREADSCRAPER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scraper.MaxRetries = n
		}
	}
	if v := os.Getenv("THREADSCRAPER_MAX_SCROLLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scraper.MaxScrolls = n
		}
	}
	if v := os.Getenv("THREADSCRAPER_OUTPUT_DIR"); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv("THREADSCRAPER_HEADLESS"); v != "" {
		c.Browser.Headless = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("THREADSCRAPER_CHROME_PATH"); v != "" {
		c.Browser.ChromePath = v
	}
	if v := os.Getenv("THREADSCRAPER_SESSION_FILE"); v != "" {
		c.Session.File = v
	}
	if v := os.Getenv("THREADSCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // no config file, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".threadscraper.yaml",
		".threadscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "threadscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".threadscraper.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid. It runs before any
// network activity so bad parameters never cost a browser launch.
func (c *Config) Validate() error {
	var errs []error

	if c.Scraper.ScrollWaitTime <= 0 {
		errs = append(errs, errors.New("scroll wait time must be positive"))
	}
	if c.Scraper.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.Scraper.MaxScrolls <= 0 {
		errs = append(errs, errors.New("max scrolls must be positive"))
	}
	if c.Scraper.MaxPosts < 0 {
		errs = append(errs, errors.New("max posts cannot be negative"))
	}
	if c.Scraper.ExpansionsPerMinute <= 0 {
		errs = append(errs, errors.New("expansions per minute must be positive"))
	}
	if c.Browser.NavTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment (including .env) > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".threadscraper.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.mergeFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// mergeFlags merges command line flag overrides into the configuration
func (c *Config) mergeFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["wait-time"].(int); ok && v > 0 {
		c.Scraper.ScrollWaitTime = time.Duration(v) * time.Second
	}
	if v, ok := flags["max-retries"].(int); ok && v > 0 {
		c.Scraper.MaxRetries = v
	}
	if v, ok := flags["max-scrolls"].(int); ok && v > 0 {
		c.Scraper.MaxScrolls = v
	}
	if v, ok := flags["max-posts"].(int); ok && v > 0 {
		c.Scraper.MaxPosts = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["skip-dedup"].(bool); ok && v {
		c.Scraper.SkipDedup = true
	}
	if v, ok := flags["session-file"].(string); ok && v != "" {
		c.Session.File = v
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.Session.Account = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

// ValidateUsername validates a Threads username and returns it cleaned of
// any leading @ prefix.
func ValidateUsername(username string) (string, error) {
	if username == "" {
		return "", errors.New("username cannot be empty")
	}

	cleaned := strings.TrimPrefix(username, "@")

	if !usernamePattern.MatchString(cleaned) {
		return "", fmt.Errorf("invalid username %q: must be 1-30 characters of letters, numbers, dots and underscores", username)
	}
	if strings.HasPrefix(cleaned, ".") || strings.HasSuffix(cleaned, ".") {
		return "", fmt.Errorf("invalid username %q: cannot start or end with a dot", username)
	}
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid username %q: cannot contain consecutive dots", username)
	}
	return cleaned, nil
}
