package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jobpipe/jobpipe/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	sessionFile := filepath.Join(dir, "session.json")
	if err := os.WriteFile(sessionFile, []byte("[]"), 0600); err != nil {
		t.Fatalf("write session file: %v", err)
	}

	configYAML := `
store:
  path: ` + filepath.Join(dir, "jobpipe.db") + `
job_cache:
  path: ` + filepath.Join(dir, "jobcache.db") + `
mail:
  host: smtp.example.com
  from_name: Alex Doe
  from_address: alex@example.com
contact_search:
  base_url: https://contacts.example.com
  session_file: ` + sessionFile + `
`
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestNewAndAddApplication(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	id, err := a.AddApplication("Acme", "https://jobs.acme.com/1", "Backend Engineer", "")
	if err != nil {
		t.Fatalf("AddApplication() error = %v", err)
	}
	if id == "" {
		t.Fatal("AddApplication() returned empty id")
	}

	// Same job URL resolves to the same application
	again, err := a.AddApplication("Acme", "https://jobs.acme.com/1", "", "")
	if err != nil {
		t.Fatalf("AddApplication() duplicate error = %v", err)
	}
	if again != id {
		t.Errorf("duplicate URL created new application: %s != %s", again, id)
	}

	apps, err := a.Applications.ListActive()
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("active applications = %d, want 1", len(apps))
	}
}

func TestNewWithAIConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.APIKey = "test-key"
	cfg.AI.Models = []config.ModelConfig{{Name: "gemini-2.5-flash", DailyLimit: 10}}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if !a.AIEnabled() {
		t.Error("AIEnabled() = false with api key and models configured")
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		logger := setupLogger(config.LoggingConfig{Level: tt.level, Format: "text"})
		if !logger.Enabled(nil, tt.want) {
			t.Errorf("level %q: logger does not enable %v", tt.level, tt.want)
		}
		if tt.want > slog.LevelDebug && logger.Enabled(nil, tt.want-4) {
			t.Errorf("level %q: logger enables %v", tt.level, tt.want-4)
		}
	}
}
