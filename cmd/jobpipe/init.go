package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	initOutput   string
	initDataDir  string
	initFromName string
	initFromAddr string
	initSMTPHost string
	initForce    bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Long: `Write a commented starter configuration.

Examples:
  # Default location (config.yaml)
  jobpipe init --smtp-host smtp.example.com --from alex@example.com

  # Custom paths
  jobpipe init -o ~/.config/jobpipe/config.yaml --data-dir ~/.local/share/jobpipe`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "config.yaml", "Output configuration file path")
	initCmd.Flags().StringVar(&initDataDir, "data-dir", ".", "Directory for databases")
	initCmd.Flags().StringVar(&initFromName, "from-name", "", "Sender display name")
	initCmd.Flags().StringVar(&initFromAddr, "from", "", "Sender email address")
	initCmd.Flags().StringVar(&initSMTPHost, "smtp-host", "", "SMTP relay host")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !initForce {
		if _, err := os.Stat(initOutput); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", initOutput)
		}
	}

	content := generateConfig()

	if dir := filepath.Dir(initOutput); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(initOutput, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration written to %s\n\n", initOutput)
	fmt.Println("Next steps:")
	fmt.Println("  1. Fill in mail relay credentials and contact_search settings")
	fmt.Printf("  2. Validate: jobpipe config validate -c %s\n", initOutput)
	fmt.Printf("  3. Record an application: jobpipe add -c %s --company Acme --url https://...\n", initOutput)

	return nil
}

func generateConfig() string {
	return fmt.Sprintf(`# jobpipe configuration

store:
  path: %s

job_cache:
  path: %s
  # ttl: 504h  # 21 days

mail:
  host: %s
  port: 587
  username: ""
  password: ""
  from_name: %q
  from_address: %q
  # resume_file: /path/to/resume.pdf
  dkim:
    enabled: false
    # selector: outreach
    # key_file: /path/to/dkim.key
    # domain: example.com

contact_search:
  base_url: https://contacts.example.com
  session_file: session.json  # exported browser session cookies (JSON)
  daily_limit: 50
  min_recruiters: 2
  max_contacts_per_cycle: 3

freshness:
  trust_days: 30
  reverify_days: 90

outreach:
  window_start_hour: 9
  window_end_hour: 11
  grace_period: 1h
  timezone: America/New_York
  followup_interval: 168h  # 7 days
  pacing_min: 30s
  pacing_max: 2m

ai:
  api_key: ""  # leave empty to use static templates only
  models:
    - name: gemini-2.5-flash
      daily_limit: 50
    - name: gemini-2.0-flash
      daily_limit: 50

metrics:
  enabled: false
  listen_addr: "127.0.0.1:9090"

logging:
  level: info
  format: text
`,
		filepath.Join(initDataDir, "jobpipe.db"),
		filepath.Join(initDataDir, "jobcache.db"),
		initSMTPHost,
		initFromName,
		initFromAddr,
	)
}
