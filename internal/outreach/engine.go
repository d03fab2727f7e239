package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jobpipe/jobpipe/internal/mailer"
	"github.com/jobpipe/jobpipe/internal/metrics"
	"github.com/jobpipe/jobpipe/internal/models"
	"github.com/jobpipe/jobpipe/internal/store"
)

// Sender submits one email
type Sender interface {
	Send(msg *mailer.Message) error
}

// ContentProvider resolves generated email copy for an application.
// A nil result means no content is available and templates fall back.
type ContentProvider interface {
	ContentFor(ctx context.Context, company, jobTitle, jobURL string) (*models.EmailContent, error)
}

// Engine drains the due-outreach queue inside the send window
type Engine struct {
	gate       *Gate
	scheduler  *Scheduler
	templates  *Templates
	outreach   *store.OutreachRepository
	recruiters *store.RecruiterRepository
	sender     Sender
	content    ContentProvider

	pacingMin time.Duration
	pacingMax time.Duration

	now   func() time.Time
	sleep func(time.Duration)

	logger *slog.Logger
}

// NewEngine wires the send loop
func NewEngine(gate *Gate, scheduler *Scheduler, templates *Templates, outreach *store.OutreachRepository, recruiters *store.RecruiterRepository, sender Sender, content ContentProvider, pacingMin, pacingMax time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		gate:       gate,
		scheduler:  scheduler,
		templates:  templates,
		outreach:   outreach,
		recruiters: recruiters,
		sender:     sender,
		content:    content,
		pacingMin:  pacingMin,
		pacingMax:  pacingMax,
		now:        time.Now,
		sleep:      time.Sleep,
		logger:     logger,
	}
}

// Run processes everything due today, honoring the send window. The
// gate is re-checked before every send: a long batch that crosses the
// cutoff reschedules its remainder to tomorrow and stops.
func (e *Engine) Run(ctx context.Context) error {
	switch e.gate.State(e.now()) {
	case GateWait:
		open := e.gate.NextOpen(e.now())
		wait := open.Sub(e.now())
		e.logger.Info("before send window, waiting", "until", open, "wait", wait)
		e.sleep(wait)
	case GateCutoff:
		return e.rescheduleAllDue()
	}

	due, err := e.outreach.ListDue(e.gate.Today(e.now()))
	if err != nil {
		return fmt.Errorf("failed to list due outreach: %w", err)
	}
	if len(due) == 0 {
		e.logger.Info("no outreach due today")
		return nil
	}

	e.logger.Info("processing outreach queue", "due", len(due))

	sent, failed := 0, 0
	for i, item := range due {
		if e.gate.State(e.now()) == GateCutoff {
			remaining := make([]string, 0, len(due)-i)
			for _, rest := range due[i:] {
				remaining = append(remaining, rest.ID)
			}
			e.logger.Info("hard cutoff mid-batch, rescheduling remainder", "count", len(remaining))
			return e.outreach.Reschedule(remaining, e.gate.Tomorrow(e.now()))
		}

		if err := e.sendOne(ctx, item); err != nil {
			failed++
		} else {
			sent++
		}

		e.pace()
	}

	e.logger.Info("outreach run complete", "sent", sent, "failed", failed)
	return nil
}

func (e *Engine) sendOne(ctx context.Context, item models.PendingOutreach) error {
	var content *models.EmailContent
	if e.content != nil {
		c, err := e.content.ContentFor(ctx, item.Company, item.JobTitle, item.JobURL)
		if err != nil {
			e.logger.Warn("content generation failed, using fallback template",
				"company", item.Company, "error", err)
		} else {
			content = c
		}
	}

	subject, body := e.templates.Render(item.Stage, item.RecruiterName, item.Company, item.JobURL, content)
	if subject == "" {
		e.logger.Warn("no template for stage, skipping", "stage", item.Stage)
		return fmt.Errorf("no template for stage %s", item.Stage)
	}

	e.logger.Info("sending outreach",
		"stage", item.Stage,
		"recruiter", item.RecruiterEmail,
		"company", item.Company,
	)

	if err := e.sender.Send(&mailer.Message{
		To:      item.RecruiterEmail,
		Subject: subject,
		Body:    body,
	}); err != nil {
		if mailer.IsPermanent(err) {
			// A hard bounce invalidates the contact, not just this attempt
			e.logger.Warn("hard bounce, retiring recruiter", "recruiter", item.RecruiterEmail)
			metrics.IncEmailsBounced(string(item.Stage))
			if merr := e.outreach.MarkBounced(item.ID); merr != nil {
				return merr
			}
			if merr := e.recruiters.MarkInactive(item.RecruiterID, "hard bounce"); merr != nil {
				return merr
			}
			return err
		}

		e.logger.Warn("send failed", "recruiter", item.RecruiterEmail, "error", err)
		metrics.IncEmailsFailed(string(item.Stage), "temporary")
		if merr := e.outreach.MarkFailed(item.ID); merr != nil {
			return merr
		}
		return err
	}

	if err := e.outreach.MarkSent(item.ID); err != nil {
		return err
	}
	metrics.IncEmailsSent(string(item.Stage))

	if !item.Replied {
		if _, err := e.scheduler.ScheduleNext(item.RecruiterID, item.ApplicationID); err != nil {
			e.logger.Warn("could not schedule next stage", "error", err)
		}
	}

	return nil
}

// rescheduleAllDue pushes today's whole queue to tomorrow
func (e *Engine) rescheduleAllDue() error {
	due, err := e.outreach.ListDue(e.gate.Today(e.now()))
	if err != nil {
		return fmt.Errorf("failed to list due outreach: %w", err)
	}
	if len(due) == 0 {
		e.logger.Info("past cutoff, nothing pending")
		return nil
	}

	ids := make([]string, 0, len(due))
	for _, item := range due {
		ids = append(ids, item.ID)
	}

	e.logger.Info("past hard cutoff, rescheduling for tomorrow", "count", len(ids))
	return e.outreach.Reschedule(ids, e.gate.Tomorrow(e.now()))
}

// pace waits a random human-like interval between sends
func (e *Engine) pace() {
	if e.pacingMax <= 0 {
		return
	}
	spread := e.pacingMax - e.pacingMin
	d := e.pacingMin
	if spread > 0 {
		d += time.Duration(rand.Int63n(int64(spread)))
	}
	e.sleep(d)
}
