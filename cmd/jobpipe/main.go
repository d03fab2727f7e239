package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobpipe/jobpipe/internal/app"
	"github.com/jobpipe/jobpipe/internal/config"
	"github.com/jobpipe/jobpipe/internal/models"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jobpipe",
	Short: "Jobpipe - recruiter outreach pipeline",
	Long:  `Jobpipe tracks job applications, discovers recruiter contacts, and sends staged outreach email.`,
}

var (
	addCompany string
	addURL     string
	addTitle   string
	addDate    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a job application",
	RunE:  runAdd,
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one contact discovery cycle",
	Long:  `Re-verify stored recruiter contacts and spend remaining search quota on companies that are short of recruiters.`,
	RunE:  runDiscover,
}

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Send due outreach email",
	Long:  `Schedule missing initial emails and send everything due today, inside the configured send window.`,
	RunE:  runOutreach,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline status",
	RunE:  runStatus,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jobpipe version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	addCmd.Flags().StringVar(&addCompany, "company", "", "Company name (required)")
	addCmd.Flags().StringVar(&addURL, "url", "", "Job posting URL (required)")
	addCmd.Flags().StringVar(&addTitle, "title", "", "Job title")
	addCmd.Flags().StringVar(&addDate, "date", "", "Applied date (YYYY-MM-DD, default today)")
	addCmd.MarkFlagRequired("company")
	addCmd.MarkFlagRequired("url")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(addCmd, discoverCmd, outreachCmd, statusCmd, configCmd, versionCmd)
}

func loadApp() (*app.App, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return app.New(cfg)
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.AddApplication(addCompany, addURL, addTitle, addDate)
	if err != nil {
		return fmt.Errorf("failed to add application: %w", err)
	}
	a.WarmJobCache(context.Background(), addURL)

	fmt.Printf("Application recorded: %s\n", id)
	return nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	a.StartMetrics(ctx)
	return a.RunDiscovery(ctx)
}

func runOutreach(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	a.StartMetrics(ctx)
	return a.RunOutreach(ctx)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	apps, err := a.Applications.ListActive()
	if err != nil {
		return err
	}
	fmt.Printf("Active applications: %d\n", len(apps))

	counts, err := a.Outreach.CountByStatus()
	if err != nil {
		return err
	}
	fmt.Printf("Outreach: %d pending, %d sent, %d failed, %d bounced\n",
		counts[models.OutreachPending],
		counts[models.OutreachSent],
		counts[models.OutreachFailed],
		counts[models.OutreachBounced],
	)

	quota, err := a.Quota.Today()
	if err != nil {
		return err
	}
	fmt.Printf("Search quota: %d of %d remaining today\n", quota.Remaining, quota.TotalLimit)

	if a.AIEnabled() {
		exhausted, err := a.Usage.AllExhausted()
		if err != nil {
			return err
		}
		if exhausted {
			fmt.Println("AI generation: all model budgets spent for today")
		}
	}

	failed, err := a.Outreach.ListByStatus(models.OutreachFailed)
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		fmt.Printf("\nFailed sends needing attention:\n")
		for _, o := range failed {
			fmt.Printf("  %s  stage=%s  scheduled=%s\n", o.ID, o.Stage, o.ScheduledFor)
		}
	}

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  Store: %s\n", cfg.Store.Path)
	fmt.Printf("  Mail relay: %s:%d\n", cfg.Mail.Host, cfg.Mail.Port)
	fmt.Printf("  Contact search: %s\n", cfg.ContactSearch.BaseURL)
	fmt.Printf("  Send window: %02d:00-%02d:00 %s (+%s grace)\n",
		cfg.Outreach.WindowStartHour, cfg.Outreach.WindowEndHour,
		cfg.Outreach.Timezone, cfg.Outreach.GracePeriod)

	return nil
}
