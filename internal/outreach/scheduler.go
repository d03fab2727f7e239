// Package outreach schedules and dispatches staged recruiter email.
package outreach

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jobpipe/jobpipe/internal/models"
	"github.com/jobpipe/jobpipe/internal/store"
)

// Scheduler creates outreach records for recruiter/application pairs
type Scheduler struct {
	outreach     *store.OutreachRepository
	applications *store.ApplicationRepository
	recruiters   *store.RecruiterRepository

	// Gap between a sent stage and its successor
	interval time.Duration

	now    func() time.Time
	logger *slog.Logger
}

// NewScheduler creates a scheduler
func NewScheduler(outreach *store.OutreachRepository, applications *store.ApplicationRepository, recruiters *store.RecruiterRepository, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		outreach:     outreach,
		applications: applications,
		recruiters:   recruiters,
		interval:     interval,
		now:          time.Now,
		logger:       logger,
	}
}

// ScheduleInitial creates an initial-stage record dated today for every
// active (recruiter, application) link with no outreach yet. Idempotent:
// pairs with any pending or sent record are skipped.
func (s *Scheduler) ScheduleInitial() (int, error) {
	apps, err := s.applications.ListActive()
	if err != nil {
		return 0, fmt.Errorf("failed to list applications: %w", err)
	}

	today := s.now().Format("2006-01-02")
	scheduled := 0

	for _, app := range apps {
		recruiters, err := s.recruiters.ListForApplication(app.ID)
		if err != nil {
			return scheduled, fmt.Errorf("failed to list recruiters for %s: %w", app.Company, err)
		}

		for _, rec := range recruiters {
			exists, err := s.outreach.HasPendingOrSent(rec.ID, app.ID)
			if err != nil {
				return scheduled, err
			}
			if exists {
				continue
			}

			if _, err := s.outreach.Schedule(rec.ID, app.ID, models.StageInitial, today); err != nil {
				return scheduled, err
			}
			s.logger.Info("scheduled initial outreach",
				"recruiter", rec.Email, "company", app.Company)
			scheduled++
		}
	}

	return scheduled, nil
}

// ScheduleNext creates the successor record for a pair whose latest
// stage was just sent. Returns the new stage, or "" when the sequence
// is complete or nothing was sent yet.
func (s *Scheduler) ScheduleNext(recruiterID, applicationID string) (models.Stage, error) {
	last, err := s.outreach.LastSentStage(recruiterID, applicationID)
	if err != nil {
		return "", fmt.Errorf("failed to read last sent stage: %w", err)
	}
	if last == "" {
		// Nothing sent yet; nothing to follow up on
		return "", nil
	}

	next := models.NextStage(last)
	if next == "" {
		return "", nil
	}

	pending, err := s.outreach.HasPending(recruiterID, applicationID)
	if err != nil {
		return "", err
	}
	if pending {
		// A successor already awaits its send date
		return "", nil
	}

	date := s.now().Add(s.interval).Format("2006-01-02")
	if _, err := s.outreach.Schedule(recruiterID, applicationID, next, date); err != nil {
		return "", err
	}

	s.logger.Debug("scheduled followup", "stage", next, "date", date)
	return next, nil
}
