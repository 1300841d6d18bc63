package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration loaded from odadoc.yaml.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Docs    DocsConfig    `yaml:"docs"`
	Output  OutputConfig  `yaml:"output"`
	Nav     []NavSection  `yaml:"nav"`
	Lint    LintConfig    `yaml:"lint"`
	Verify  VerifyConfig  `yaml:"verify"`
	Serve   ServeConfig   `yaml:"serve"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the generated site.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Language    string `yaml:"language,omitempty"`
	EditBaseURL string `yaml:"edit_base_url,omitempty"` // prefix for "edit this page" links
}

// DocsConfig locates the documentation tree.
type DocsConfig struct {
	Dir string `yaml:"dir"`
}

// OutputConfig controls where and how the site is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// NavSection is one sidebar section: a label plus the ordered pages in it.
type NavSection struct {
	Section string   `yaml:"section"`
	Pages   []string `yaml:"pages"`
}

// LintConfig carries lint defaults overridable per invocation.
type LintConfig struct {
	Quiet  bool   `yaml:"quiet,omitempty"`
	Format string `yaml:"format,omitempty"` // text|json
}

// VerifyConfig controls link and entity verification.
type VerifyConfig struct {
	Enabled          bool       `yaml:"enabled"`
	RequestTimeout   string     `yaml:"request_timeout,omitempty"`
	MaxConcurrent    int        `yaml:"max_concurrent,omitempty"`
	RateLimitDelay   string     `yaml:"rate_limit_delay,omitempty"`
	FollowRedirects  bool       `yaml:"follow_redirects"`
	MaxRedirects     int        `yaml:"max_redirects,omitempty"`
	CacheTTL         string     `yaml:"cache_ttl,omitempty"`
	CacheTTLFailures string     `yaml:"cache_ttl_failures,omitempty"`
	InternalHosts    []string   `yaml:"internal_hosts,omitempty"`
	NATS             NATSConfig `yaml:"nats,omitempty"`
	APIBase          string     `yaml:"api_base,omitempty"` // oda.ft.dk OData endpoint for entity probes
}

// NATSConfig enables the shared link cache and broken-link events.
// Empty URL means verification runs with an in-process cache only.
type NATSConfig struct {
	URL      string `yaml:"url,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	KVBucket string `yaml:"kv_bucket,omitempty"`
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Addr           string `yaml:"addr,omitempty"`
	Metrics        bool   `yaml:"metrics"`
	VerifyInterval string `yaml:"verify_interval,omitempty"` // "" disables scheduled verification
	DebounceDelay  string `yaml:"debounce_delay,omitempty"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load reads the configuration file, expands ${VAR} references from the
// environment (after loading .env/.env.local) and applies defaults.
func Load(path string) (*Config, error) {
	loadEnv()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnv() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		// godotenv never overrides variables already present in the process.
		if err := godotenv.Load(name); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", name)
			return
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Danish Parliament OData API"
	}
	if c.Site.Language == "" {
		c.Site.Language = "da"
	}
	if c.Docs.Dir == "" {
		c.Docs.Dir = "docs"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./site"
		c.Output.Clean = true
	}
	if c.Lint.Format == "" {
		c.Lint.Format = "text"
	}

	if c.Verify.RequestTimeout == "" {
		c.Verify.RequestTimeout = "10s"
	}
	if c.Verify.MaxConcurrent <= 0 {
		c.Verify.MaxConcurrent = 10
	}
	if c.Verify.RateLimitDelay == "" {
		c.Verify.RateLimitDelay = "100ms"
	}
	if c.Verify.MaxRedirects <= 0 {
		c.Verify.MaxRedirects = 10
	}
	if c.Verify.CacheTTL == "" {
		c.Verify.CacheTTL = "24h"
	}
	if c.Verify.CacheTTLFailures == "" {
		c.Verify.CacheTTLFailures = "1h"
	}
	if c.Verify.NATS.URL != "" {
		if c.Verify.NATS.Subject == "" {
			c.Verify.NATS.Subject = "odadoc.links.broken"
		}
		if c.Verify.NATS.KVBucket == "" {
			c.Verify.NATS.KVBucket = "odadoc-link-cache"
		}
	}
	if c.Verify.APIBase == "" {
		c.Verify.APIBase = "https://oda.ft.dk/api/"
	}

	if c.Serve.Addr == "" {
		c.Serve.Addr = "127.0.0.1:8787"
	}
	if c.Serve.DebounceDelay == "" {
		c.Serve.DebounceDelay = "400ms"
	}

	c.Logging.Level = string(NormalizeLogLevel(c.Logging.Level))
	c.Logging.Format = string(NormalizeLogFormat(c.Logging.Format))
}

// Validate rejects configurations the pipeline cannot act on.
func (c *Config) Validate() error {
	if c.Site.BaseURL != "" {
		u, err := url.Parse(c.Site.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("site.base_url must be an absolute URL: %q", c.Site.BaseURL)
		}
	}
	for _, d := range []struct{ name, val string }{
		{"verify.request_timeout", c.Verify.RequestTimeout},
		{"verify.rate_limit_delay", c.Verify.RateLimitDelay},
		{"verify.cache_ttl", c.Verify.CacheTTL},
		{"verify.cache_ttl_failures", c.Verify.CacheTTLFailures},
		{"serve.debounce_delay", c.Serve.DebounceDelay},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("%s: invalid duration %q", d.name, d.val)
		}
	}
	if c.Serve.VerifyInterval != "" {
		if _, err := time.ParseDuration(c.Serve.VerifyInterval); err != nil {
			return fmt.Errorf("serve.verify_interval: invalid duration %q", c.Serve.VerifyInterval)
		}
	}
	seen := map[string]string{}
	for _, section := range c.Nav {
		if section.Section == "" {
			return fmt.Errorf("nav: section label must not be empty")
		}
		for _, page := range section.Pages {
			if prev, ok := seen[page]; ok {
				return fmt.Errorf("nav: page %q listed in both %q and %q", page, prev, section.Section)
			}
			seen[page] = section.Section
		}
	}
	return nil
}
