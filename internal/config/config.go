package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	Store         StoreConfig         `yaml:"store"`
	Mail          MailConfig          `yaml:"mail"`
	ContactSearch ContactSearchConfig `yaml:"contact_search"`
	Freshness     FreshnessConfig     `yaml:"freshness"`
	Outreach      OutreachConfig      `yaml:"outreach"`
	JobCache      JobCacheConfig      `yaml:"job_cache"`
	AI            AIConfig            `yaml:"ai"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// StoreConfig contains sqlite storage settings
type StoreConfig struct {
	Path string `yaml:"path"`
}

// MailConfig contains SMTP submission settings
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	FromName    string `yaml:"from_name"`
	FromAddress string `yaml:"from_address"`

	// Path to the resume PDF attached to every outreach email
	ResumeFile string `yaml:"resume_file"`

	DKIM DKIMConfig `yaml:"dkim"`
}

// DKIMConfig contains optional DKIM signing settings
type DKIMConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Selector string `yaml:"selector"`
	KeyFile  string `yaml:"key_file"`
	Domain   string `yaml:"domain"`
}

// ContactSearchConfig contains contact-search service settings
type ContactSearchConfig struct {
	BaseURL     string        `yaml:"base_url"`
	SessionFile string        `yaml:"session_file"`
	Timeout     time.Duration `yaml:"timeout"`

	DailyLimit          int `yaml:"daily_limit"`            // Profile visits per day
	MinRecruitersPerCo  int `yaml:"min_recruiters"`         // Target recruiters per company
	MaxContactsPerCo    int `yaml:"max_contacts_per_cycle"` // Hard per-company cap per cycle
	ModelUsageRetention int `yaml:"usage_retention_days"`   // Days of model usage rows to keep
}

// FreshnessConfig contains recruiter re-verification thresholds
type FreshnessConfig struct {
	TrustDays    int `yaml:"trust_days"`    // Younger than this: trust as-is
	ReverifyDays int `yaml:"reverify_days"` // Older than this: full re-verify
}

// OutreachConfig contains send-window and pacing settings
type OutreachConfig struct {
	WindowStartHour int           `yaml:"window_start_hour"`
	WindowEndHour   int           `yaml:"window_end_hour"`
	GracePeriod     time.Duration `yaml:"grace_period"`
	Timezone        string        `yaml:"timezone"`

	FollowupInterval time.Duration `yaml:"followup_interval"`

	// Random delay between consecutive sends
	PacingMin time.Duration `yaml:"pacing_min"`
	PacingMax time.Duration `yaml:"pacing_max"`
}

// JobCacheConfig contains job description cache settings
type JobCacheConfig struct {
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`
}

// AIConfig contains generation settings for email personalization
type AIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`

	// Models in preference order with per-model daily call limits
	Models []ModelConfig `yaml:"models"`

	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ModelConfig is one model in the fallback chain
type ModelConfig struct {
	Name       string `yaml:"name"`
	DailyLimit int    `yaml:"daily_limit"`
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"` // Default: :9090
	Path       string `yaml:"path"`        // Default: /metrics
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = "jobpipe.db"
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}

	if c.ContactSearch.Timeout == 0 {
		c.ContactSearch.Timeout = 30 * time.Second
	}
	if c.ContactSearch.DailyLimit == 0 {
		c.ContactSearch.DailyLimit = 50
	}
	if c.ContactSearch.MinRecruitersPerCo == 0 {
		c.ContactSearch.MinRecruitersPerCo = 2
	}
	if c.ContactSearch.MaxContactsPerCo == 0 {
		c.ContactSearch.MaxContactsPerCo = 3
	}
	if c.ContactSearch.ModelUsageRetention == 0 {
		c.ContactSearch.ModelUsageRetention = 30
	}

	if c.Freshness.TrustDays == 0 {
		c.Freshness.TrustDays = 30
	}
	if c.Freshness.ReverifyDays == 0 {
		c.Freshness.ReverifyDays = 90
	}

	if c.Outreach.WindowStartHour == 0 {
		c.Outreach.WindowStartHour = 9
	}
	if c.Outreach.WindowEndHour == 0 {
		c.Outreach.WindowEndHour = 11
	}
	if c.Outreach.GracePeriod == 0 {
		c.Outreach.GracePeriod = time.Hour
	}
	if c.Outreach.Timezone == "" {
		c.Outreach.Timezone = "America/New_York"
	}
	if c.Outreach.FollowupInterval == 0 {
		c.Outreach.FollowupInterval = 7 * 24 * time.Hour
	}
	if c.Outreach.PacingMin == 0 {
		c.Outreach.PacingMin = 30 * time.Second
	}
	if c.Outreach.PacingMax == 0 {
		c.Outreach.PacingMax = 2 * time.Minute
	}

	if c.JobCache.Path == "" {
		c.JobCache.Path = "jobcache.db"
	}
	if c.JobCache.TTL == 0 {
		c.JobCache.TTL = 21 * 24 * time.Hour
	}

	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.AI.CacheTTL == 0 {
		c.AI.CacheTTL = 21 * 24 * time.Hour
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Mail.Host == "" {
		return fmt.Errorf("mail.host is required")
	}
	if c.Mail.FromAddress == "" {
		return fmt.Errorf("mail.from_address is required")
	}

	if c.Mail.DKIM.Enabled {
		if c.Mail.DKIM.Selector == "" {
			return fmt.Errorf("mail.dkim.selector is required when DKIM is enabled")
		}
		if c.Mail.DKIM.KeyFile == "" {
			return fmt.Errorf("mail.dkim.key_file is required when DKIM is enabled")
		}
		if c.Mail.DKIM.Domain == "" {
			return fmt.Errorf("mail.dkim.domain is required when DKIM is enabled")
		}
	}

	if c.ContactSearch.BaseURL == "" {
		return fmt.Errorf("contact_search.base_url is required")
	}
	if c.ContactSearch.SessionFile == "" {
		return fmt.Errorf("contact_search.session_file is required")
	}

	if c.Freshness.TrustDays >= c.Freshness.ReverifyDays {
		return fmt.Errorf("freshness.trust_days must be less than freshness.reverify_days")
	}

	if c.Outreach.WindowStartHour < 0 || c.Outreach.WindowStartHour > 23 {
		return fmt.Errorf("outreach.window_start_hour must be in [0, 23]")
	}
	if c.Outreach.WindowEndHour <= c.Outreach.WindowStartHour || c.Outreach.WindowEndHour > 24 {
		return fmt.Errorf("outreach.window_end_hour must be after window_start_hour and at most 24")
	}
	if _, err := time.LoadLocation(c.Outreach.Timezone); err != nil {
		return fmt.Errorf("invalid outreach.timezone: %w", err)
	}
	if c.Outreach.PacingMax < c.Outreach.PacingMin {
		return fmt.Errorf("outreach.pacing_max must not be less than pacing_min")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

// ModelLimits returns per-model daily call limits keyed by model name
func (c *Config) ModelLimits() map[string]int {
	limits := make(map[string]int, len(c.AI.Models))
	for _, m := range c.AI.Models {
		limits[m.Name] = m.DailyLimit
	}
	return limits
}
