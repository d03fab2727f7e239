package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
store:
  path: "/tmp/pipeline.db"

mail:
  host: "smtp.test.com"
  port: 2587
  username: "user"
  password: "pass"
  from_name: "Jane Doe"
  from_address: "jane@test.com"
  resume_file: "/tmp/resume.pdf"

contact_search:
  base_url: "https://search.test"
  session_file: "/tmp/session.json"
  daily_limit: 40

freshness:
  trust_days: 14
  reverify_days: 60

outreach:
  window_start_hour: 8
  window_end_hour: 10
  grace_period: 30m
  timezone: "America/Chicago"
  followup_interval: 120h

logging:
  level: "debug"
  format: "text"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Path != "/tmp/pipeline.db" {
		t.Errorf("Store.Path = %v, want /tmp/pipeline.db", cfg.Store.Path)
	}
	if cfg.Mail.Host != "smtp.test.com" {
		t.Errorf("Mail.Host = %v, want smtp.test.com", cfg.Mail.Host)
	}
	if cfg.Mail.Port != 2587 {
		t.Errorf("Mail.Port = %v, want 2587", cfg.Mail.Port)
	}
	if cfg.ContactSearch.DailyLimit != 40 {
		t.Errorf("ContactSearch.DailyLimit = %v, want 40", cfg.ContactSearch.DailyLimit)
	}
	if cfg.Freshness.TrustDays != 14 {
		t.Errorf("Freshness.TrustDays = %v, want 14", cfg.Freshness.TrustDays)
	}
	if cfg.Outreach.WindowStartHour != 8 {
		t.Errorf("Outreach.WindowStartHour = %v, want 8", cfg.Outreach.WindowStartHour)
	}
	if cfg.Outreach.GracePeriod != 30*time.Minute {
		t.Errorf("Outreach.GracePeriod = %v, want 30m", cfg.Outreach.GracePeriod)
	}
	if cfg.Outreach.FollowupInterval != 120*time.Hour {
		t.Errorf("Outreach.FollowupInterval = %v, want 120h", cfg.Outreach.FollowupInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `
mail:
  host: "smtp.test.com"
  from_address: "jane@test.com"

contact_search:
  base_url: "https://search.test"
  session_file: "/tmp/session.json"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mail.Port != 587 {
		t.Errorf("Mail.Port = %v, want 587", cfg.Mail.Port)
	}
	if cfg.ContactSearch.DailyLimit != 50 {
		t.Errorf("ContactSearch.DailyLimit = %v, want 50", cfg.ContactSearch.DailyLimit)
	}
	if cfg.ContactSearch.MinRecruitersPerCo != 2 {
		t.Errorf("ContactSearch.MinRecruitersPerCo = %v, want 2", cfg.ContactSearch.MinRecruitersPerCo)
	}
	if cfg.ContactSearch.MaxContactsPerCo != 3 {
		t.Errorf("ContactSearch.MaxContactsPerCo = %v, want 3", cfg.ContactSearch.MaxContactsPerCo)
	}
	if cfg.Outreach.WindowStartHour != 9 || cfg.Outreach.WindowEndHour != 11 {
		t.Errorf("window = [%d, %d), want [9, 11)", cfg.Outreach.WindowStartHour, cfg.Outreach.WindowEndHour)
	}
	if cfg.Outreach.GracePeriod != time.Hour {
		t.Errorf("Outreach.GracePeriod = %v, want 1h", cfg.Outreach.GracePeriod)
	}
	if cfg.Outreach.Timezone != "America/New_York" {
		t.Errorf("Outreach.Timezone = %v, want America/New_York", cfg.Outreach.Timezone)
	}
	if cfg.Outreach.FollowupInterval != 7*24*time.Hour {
		t.Errorf("Outreach.FollowupInterval = %v, want 168h", cfg.Outreach.FollowupInterval)
	}
	if cfg.JobCache.TTL != 21*24*time.Hour {
		t.Errorf("JobCache.TTL = %v, want 504h", cfg.JobCache.TTL)
	}
	if cfg.AI.CacheTTL != 21*24*time.Hour {
		t.Errorf("AI.CacheTTL = %v, want 504h", cfg.AI.CacheTTL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %v, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %v, want text", cfg.Logging.Format)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Mail: MailConfig{Host: "smtp.test.com", FromAddress: "jane@test.com"},
			ContactSearch: ContactSearchConfig{
				BaseURL:     "https://search.test",
				SessionFile: "/tmp/session.json",
			},
			Freshness: FreshnessConfig{TrustDays: 30, ReverifyDays: 90},
			Outreach: OutreachConfig{
				WindowStartHour: 9,
				WindowEndHour:   11,
				Timezone:        "America/New_York",
			},
			Logging: LoggingConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing mail host", mutate: func(c *Config) { c.Mail.Host = "" }, wantErr: true},
		{name: "missing from address", mutate: func(c *Config) { c.Mail.FromAddress = "" }, wantErr: true},
		{name: "dkim enabled without selector", mutate: func(c *Config) {
			c.Mail.DKIM = DKIMConfig{Enabled: true, KeyFile: "k", Domain: "d"}
		}, wantErr: true},
		{name: "missing session file", mutate: func(c *Config) { c.ContactSearch.SessionFile = "" }, wantErr: true},
		{name: "trust threshold above reverify", mutate: func(c *Config) {
			c.Freshness = FreshnessConfig{TrustDays: 90, ReverifyDays: 30}
		}, wantErr: true},
		{name: "window end before start", mutate: func(c *Config) {
			c.Outreach.WindowStartHour = 11
			c.Outreach.WindowEndHour = 9
		}, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Outreach.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "pacing max below min", mutate: func(c *Config) {
			c.Outreach.PacingMin = time.Minute
			c.Outreach.PacingMax = time.Second
		}, wantErr: true},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: true},
		{name: "invalid log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelLimits(t *testing.T) {
	cfg := Config{AI: AIConfig{Models: []ModelConfig{
		{Name: "model-a", DailyLimit: 100},
		{Name: "model-b", DailyLimit: 50},
	}}}

	limits := cfg.ModelLimits()
	if limits["model-a"] != 100 || limits["model-b"] != 50 {
		t.Errorf("ModelLimits() = %v", limits)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, `invalid: yaml: content: [`))
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}
