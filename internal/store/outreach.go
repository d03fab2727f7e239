package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobpipe/jobpipe/internal/models"
)

// OutreachRepository manages the outreach ledger
type OutreachRepository struct {
	db *sql.DB
}

func NewOutreachRepository(db *DB) *OutreachRepository {
	return &OutreachRepository{db: db.DB}
}

// Schedule inserts a new pending outreach record and returns its id
func (r *OutreachRepository) Schedule(recruiterID, applicationID string, stage models.Stage, scheduledFor string) (string, error) {
	id := uuid.New().String()
	_, err := r.db.Exec(`
		INSERT INTO outreach (id, recruiter_id, application_id, stage, status, scheduled_for)
		VALUES (?, ?, ?, ?, 'pending', ?)`,
		id, recruiterID, applicationID, stage, scheduledFor,
	)
	if err != nil {
		return "", fmt.Errorf("failed to schedule outreach: %w", err)
	}
	return id, nil
}

// HasPendingOrSent reports whether the pair already has a pending or
// sent record at any stage. Guards ScheduleInitial idempotency.
func (r *OutreachRepository) HasPendingOrSent(recruiterID, applicationID string) (bool, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM outreach
		WHERE recruiter_id = ? AND application_id = ?
		AND status IN ('pending', 'sent')
		LIMIT 1`,
		recruiterID, applicationID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HasPending reports whether the pair has any pending record. Guards
// followup scheduling: a pair holds at most one pending row at a time.
func (r *OutreachRepository) HasPending(recruiterID, applicationID string) (bool, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM outreach
		WHERE recruiter_id = ? AND application_id = ? AND status = 'pending'
		LIMIT 1`,
		recruiterID, applicationID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LastSentStage returns the stage of the most recently sent record for
// the pair, or "". Ordered by rowid, not sent_at: two sends in the same
// second must not be ambiguous.
func (r *OutreachRepository) LastSentStage(recruiterID, applicationID string) (models.Stage, error) {
	var stage models.Stage
	err := r.db.QueryRow(`
		SELECT stage FROM outreach
		WHERE recruiter_id = ? AND application_id = ? AND status = 'sent'
		ORDER BY rowid DESC LIMIT 1`,
		recruiterID, applicationID,
	).Scan(&stage)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return stage, nil
}

// ListDue returns pending records scheduled on or before asOf
// (YYYY-MM-DD), joined with recruiter and application. Replied pairs and
// inactive recruiters are excluded from candidacy.
func (r *OutreachRepository) ListDue(asOf string) ([]models.PendingOutreach, error) {
	rows, err := r.db.Query(`
		SELECT o.id, o.recruiter_id, o.application_id, o.stage, o.status, o.replied,
		       o.scheduled_for, o.sent_at, o.created_at,
		       r.name, r.email, r.company, a.job_url, a.job_title
		FROM outreach o
		JOIN recruiters r ON r.id = o.recruiter_id
		JOIN applications a ON a.id = o.application_id
		WHERE o.status = 'pending'
		AND o.scheduled_for <= ?
		AND o.replied = 0
		AND r.status = 'active'
		ORDER BY o.scheduled_for ASC, o.rowid ASC`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	due := []models.PendingOutreach{}
	for rows.Next() {
		var p models.PendingOutreach
		var sentAt sql.NullTime
		var jobTitle sql.NullString
		if err := rows.Scan(&p.ID, &p.RecruiterID, &p.ApplicationID, &p.Stage, &p.Status, &p.Replied,
			&p.ScheduledFor, &sentAt, &p.CreatedAt,
			&p.RecruiterName, &p.RecruiterEmail, &p.Company, &p.JobURL, &jobTitle); err != nil {
			return nil, err
		}
		if sentAt.Valid {
			p.SentAt = &sentAt.Time
		}
		p.JobTitle = jobTitle.String
		due = append(due, p)
	}
	return due, rows.Err()
}

// MarkSent records a successful send
func (r *OutreachRepository) MarkSent(id string) error {
	_, err := r.db.Exec(`
		UPDATE outreach SET status = 'sent', sent_at = ? WHERE id = ?`,
		time.Now(), id)
	return err
}

// MarkFailed records a transient send failure. Failed rows are not
// rescheduled automatically; they are surfaced by ListByStatus.
func (r *OutreachRepository) MarkFailed(id string) error {
	_, err := r.db.Exec("UPDATE outreach SET status = 'failed' WHERE id = ?", id)
	return err
}

// MarkBounced records a hard bounce for the outreach record
func (r *OutreachRepository) MarkBounced(id string) error {
	_, err := r.db.Exec("UPDATE outreach SET status = 'bounced' WHERE id = ?", id)
	return err
}

// SetReplied flags a pair as replied, halting further scheduling
func (r *OutreachRepository) SetReplied(id string, replied bool) error {
	_, err := r.db.Exec("UPDATE outreach SET replied = ? WHERE id = ?", replied, id)
	return err
}

// Reschedule moves pending records to a new date. Used by the cutoff
// path; the records themselves are never deleted.
func (r *OutreachRepository) Reschedule(ids []string, date string) error {
	for _, id := range ids {
		if _, err := r.db.Exec("UPDATE outreach SET scheduled_for = ? WHERE id = ?", date, id); err != nil {
			return fmt.Errorf("failed to reschedule outreach %s: %w", id, err)
		}
	}
	return nil
}

// ListByStatus returns outreach rows in a given status, oldest first
func (r *OutreachRepository) ListByStatus(status models.OutreachStatus) ([]models.Outreach, error) {
	rows, err := r.db.Query(`
		SELECT id, recruiter_id, application_id, stage, status, replied, scheduled_for, sent_at, created_at
		FROM outreach WHERE status = ? ORDER BY rowid ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Outreach{}
	for rows.Next() {
		var o models.Outreach
		var sentAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.RecruiterID, &o.ApplicationID, &o.Stage, &o.Status,
			&o.Replied, &o.ScheduledFor, &sentAt, &o.CreatedAt); err != nil {
			return nil, err
		}
		if sentAt.Valid {
			o.SentAt = &sentAt.Time
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountByStatus returns row counts grouped by status
func (r *OutreachRepository) CountByStatus() (map[models.OutreachStatus]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM outreach GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.OutreachStatus]int)
	for rows.Next() {
		var status models.OutreachStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
