// Package app wires the pipeline components together and exposes the
// operations the CLI runs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jobpipe/jobpipe/internal/config"
	"github.com/jobpipe/jobpipe/internal/contactsearch"
	"github.com/jobpipe/jobpipe/internal/discovery"
	"github.com/jobpipe/jobpipe/internal/freshness"
	"github.com/jobpipe/jobpipe/internal/jobcache"
	"github.com/jobpipe/jobpipe/internal/jobfetch"
	"github.com/jobpipe/jobpipe/internal/mailer"
	"github.com/jobpipe/jobpipe/internal/metrics"
	"github.com/jobpipe/jobpipe/internal/models"
	"github.com/jobpipe/jobpipe/internal/outreach"
	"github.com/jobpipe/jobpipe/internal/personalize"
	"github.com/jobpipe/jobpipe/internal/quota"
	"github.com/jobpipe/jobpipe/internal/store"
)

// App is the assembled pipeline
type App struct {
	config *config.Config
	logger *slog.Logger

	db           *store.DB
	Applications *store.ApplicationRepository
	Recruiters   *store.RecruiterRepository
	Outreach     *store.OutreachRepository
	Quota        *store.QuotaRepository
	Usage        *store.ModelUsageRepository

	session   contactsearch.Session
	jobCache  *jobcache.Cache
	fetcher   *jobfetch.Fetcher
	generator *personalize.Generator
	mailer    *mailer.Mailer
	gate      *outreach.Gate
	scheduler *outreach.Scheduler
	verifier  *freshness.Verifier

	metricsServer *metrics.Server
	collector     *metrics.Collector
}

// New assembles the pipeline from configuration
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	usageRetention := time.Duration(cfg.ContactSearch.ModelUsageRetention) * 24 * time.Hour
	if err := db.Cleanup(usageRetention); err != nil {
		logger.Warn("store cleanup failed", "error", err)
	}

	jobCache, err := jobcache.Open(cfg.JobCache.Path, cfg.JobCache.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to open job cache: %w", err)
	}
	if deleted, err := jobCache.Cleanup(); err != nil {
		logger.Warn("job cache cleanup failed", "error", err)
	} else if deleted > 0 {
		logger.Info("expired job cache entries removed", "count", deleted)
	}

	session, err := contactsearch.NewClient(contactsearch.Config{
		BaseURL:     cfg.ContactSearch.BaseURL,
		SessionFile: cfg.ContactSearch.SessionFile,
		Timeout:     cfg.ContactSearch.Timeout,
	}, logger.With("component", "contactsearch"))
	if err != nil {
		return nil, fmt.Errorf("failed to create contact-search client: %w", err)
	}

	sender, err := mailer.New(cfg.Mail, logger.With("component", "mailer"))
	if err != nil {
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}

	gate, err := outreach.NewGate(cfg.Outreach)
	if err != nil {
		return nil, fmt.Errorf("failed to create send gate: %w", err)
	}

	applications := store.NewApplicationRepository(db)
	recruiters := store.NewRecruiterRepository(db)
	outreachRepo := store.NewOutreachRepository(db)
	quotaRepo := store.NewQuotaRepository(db, cfg.ContactSearch.DailyLimit)
	contentRepo := store.NewEmailContentRepository(db)
	usageRepo := store.NewModelUsageRepository(db, cfg.ModelLimits())

	modelNames := make([]string, 0, len(cfg.AI.Models))
	for _, m := range cfg.AI.Models {
		modelNames = append(modelNames, m.Name)
	}

	var generator *personalize.Generator
	if cfg.AI.APIKey != "" && len(modelNames) > 0 {
		client, err := personalize.NewGeminiClient(cfg.AI.APIKey, cfg.AI.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		generator = personalize.NewGenerator(client, contentRepo, usageRepo,
			modelNames, cfg.AI.CacheTTL, logger.With("component", "personalize"))
	}

	a := &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		Applications: applications,
		Recruiters:   recruiters,
		Outreach:     outreachRepo,
		Quota:        quotaRepo,
		Usage:        usageRepo,
		session:      session,
		jobCache:     jobCache,
		fetcher:      jobfetch.NewFetcher(jobCache, logger.With("component", "jobfetch")),
		generator:    generator,
		mailer:       sender,
		gate:         gate,
		scheduler: outreach.NewScheduler(outreachRepo, applications, recruiters,
			cfg.Outreach.FollowupInterval, logger.With("component", "scheduler")),
		verifier: freshness.NewVerifier(session, recruiters,
			cfg.Freshness.TrustDays, cfg.Freshness.ReverifyDays,
			logger.With("component", "freshness")),
	}

	if cfg.Metrics.Enabled {
		m := metrics.New()
		metrics.SetGlobal(m)
		a.collector = metrics.NewCollector(m, outreachRepo, quotaRepo, cfg.Store.Path, 0)
		a.metricsServer = metrics.NewServer(m, cfg.Metrics.ListenAddr, cfg.Metrics.Path,
			logger.With("component", "metrics"))
	}

	return a, nil
}

// Logger returns the application logger
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// AIEnabled reports whether content generation is configured
func (a *App) AIEnabled() bool {
	return a.generator != nil
}

// StartMetrics starts the metrics collector and HTTP endpoint, if enabled
func (a *App) StartMetrics(ctx context.Context) {
	if a.collector == nil {
		return
	}
	a.collector.Start(ctx)
	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil {
			a.logger.Warn("metrics server stopped", "error", err)
		}
	}()
}

// Close releases storage handles and stops background work
func (a *App) Close() error {
	if a.collector != nil {
		a.collector.Stop()
		if err := a.metricsServer.Shutdown(context.Background()); err != nil {
			a.logger.Warn("metrics shutdown error", "error", err)
		}
	}
	if err := a.jobCache.Close(); err != nil {
		a.logger.Warn("job cache close error", "error", err)
	}
	return a.db.Close()
}

// AddApplication records a new job application
func (a *App) AddApplication(company, jobURL, jobTitle, appliedDate string) (string, error) {
	id, err := a.Applications.Add(&models.Application{
		Company:     company,
		JobURL:      jobURL,
		JobTitle:    jobTitle,
		AppliedDate: appliedDate,
	})
	if err != nil {
		return "", err
	}
	a.logger.Info("application recorded", "company", company, "url", jobURL)
	return id, nil
}

// WarmJobCache fetches a posting's description so the first outreach
// run finds it cached. Failures are logged, never fatal: the posting
// may already be down, and the engine falls back to static templates.
func (a *App) WarmJobCache(ctx context.Context, jobURL string) {
	if _, err := a.fetcher.Description(ctx, jobURL); err != nil {
		a.logger.Warn("could not prefetch job description", "url", jobURL, "error", err)
	}
}

// RunDiscovery executes one discovery cycle: reconcile quota with the
// service, re-verify stored contacts, then spend the remaining credits
// on companies that are short of recruiters.
func (a *App) RunDiscovery(ctx context.Context) error {
	if remote, err := a.session.FetchQuota(ctx); err != nil {
		a.logger.Warn("could not fetch remote quota, using local counter", "error", err)
	} else if err := a.Quota.Reconcile(remote); err != nil {
		return fmt.Errorf("failed to reconcile quota: %w", err)
	}

	if err := a.verifyExisting(ctx); err != nil {
		return err
	}

	companies, err := a.Applications.CompaniesNeedingDiscovery(a.config.ContactSearch.MinRecruitersPerCo)
	if err != nil {
		return fmt.Errorf("failed to list companies needing discovery: %w", err)
	}
	if len(companies) == 0 {
		a.logger.Info("no companies need discovery")
		return nil
	}

	remaining, err := a.Quota.Remaining()
	if err != nil {
		return err
	}
	caps := quota.Distribute(remaining, len(companies), a.config.ContactSearch.MaxContactsPerCo)
	a.logger.Info("starting discovery cycle",
		"companies", len(companies), "quota_remaining", remaining)

	d := discovery.NewDiscoverer(a.session, a.Quota,
		a.config.ContactSearch.MinRecruitersPerCo,
		a.logger.With("component", "discovery"))

	apps, err := a.Applications.ListActive()
	if err != nil {
		return err
	}

	for i, company := range companies {
		contacts, err := d.Discover(ctx, company, caps[i])
		if err != nil {
			return fmt.Errorf("discovery failed for %s: %w", company, err)
		}

		for _, c := range contacts {
			recID, err := a.Recruiters.Add(&models.Recruiter{
				Company:    company,
				Name:       c.Name,
				Position:   c.Position,
				Email:      c.Email,
				Confidence: c.Confidence,
			})
			if err != nil {
				return fmt.Errorf("failed to store recruiter: %w", err)
			}
			for _, app := range apps {
				if app.Company != company {
					continue
				}
				if err := a.Recruiters.LinkToApplication(app.ID, recID); err != nil {
					return err
				}
			}
		}
		a.logger.Info("discovery complete for company",
			"company", company, "found", len(contacts))
	}

	if remaining, err := a.Quota.Remaining(); err == nil {
		metrics.SetQuotaRemaining(remaining)
	}
	return nil
}

// verifyExisting runs freshness checks over every stored active contact
// of companies with active applications.
func (a *App) verifyExisting(ctx context.Context) error {
	apps, err := a.Applications.ListActive()
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, app := range apps {
		if seen[app.Company] {
			continue
		}
		seen[app.Company] = true

		recs, err := a.Recruiters.ListActiveByCompany(app.Company)
		if err != nil {
			return err
		}
		for i := range recs {
			outcome, err := a.verifier.Verify(ctx, &recs[i])
			if err != nil {
				return fmt.Errorf("failed to verify %s: %w", recs[i].Email, err)
			}
			if outcome != freshness.OutcomeTrusted {
				a.logger.Debug("freshness check",
					"recruiter", recs[i].Email, "outcome", outcome)
			}
		}
	}
	return nil
}

// RunOutreach schedules missing initial emails and drains the due queue
func (a *App) RunOutreach(ctx context.Context) error {
	scheduled, err := a.scheduler.ScheduleInitial()
	if err != nil {
		return fmt.Errorf("failed to schedule initial outreach: %w", err)
	}
	if scheduled > 0 {
		a.logger.Info("initial outreach scheduled", "count", scheduled)
	}

	var provider outreach.ContentProvider
	if a.generator != nil {
		provider = &contentProvider{fetcher: a.fetcher, generator: a.generator}
	}

	engine := outreach.NewEngine(a.gate, a.scheduler,
		&outreach.Templates{SenderName: a.config.Mail.FromName},
		a.Outreach, a.Recruiters, a.mailer, provider,
		a.config.Outreach.PacingMin, a.config.Outreach.PacingMax,
		a.logger.With("component", "engine"))

	return engine.Run(ctx)
}

// contentProvider feeds fetched job descriptions into the generator
type contentProvider struct {
	fetcher   *jobfetch.Fetcher
	generator *personalize.Generator
}

func (p *contentProvider) ContentFor(ctx context.Context, company, jobTitle, jobURL string) (*models.EmailContent, error) {
	if jobURL == "" {
		return nil, nil
	}
	text, err := p.fetcher.Description(ctx, jobURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job description: %w", err)
	}
	return p.generator.Content(ctx, company, jobTitle, text)
}

// setupLogger creates a logger based on configuration
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
