package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jobpipe/jobpipe/internal/models"
)

// QuotaRepository tracks the daily contact-search credit counter.
// One row per calendar day, created lazily on first access.
type QuotaRepository struct {
	db         *sql.DB
	dailyLimit int
	now        func() time.Time
}

func NewQuotaRepository(db *DB, dailyLimit int) *QuotaRepository {
	return &QuotaRepository{db: db.DB, dailyLimit: dailyLimit, now: time.Now}
}

// Today returns the quota row for the current day, creating it at the
// configured limit if missing.
func (r *QuotaRepository) Today() (*models.QuotaDay, error) {
	date := r.now().Format("2006-01-02")

	q, err := r.get(date)
	if err != nil {
		return nil, err
	}
	if q != nil {
		return q, nil
	}

	_, err = r.db.Exec(`
		INSERT INTO contact_quota (date, total_limit, used, remaining)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(date) DO NOTHING`,
		date, r.dailyLimit, r.dailyLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota row: %w", err)
	}
	return r.get(date)
}

// Increment spends n credits from today's quota
func (r *QuotaRepository) Increment(n int) error {
	if _, err := r.Today(); err != nil {
		return err
	}
	date := r.now().Format("2006-01-02")
	_, err := r.db.Exec(`
		UPDATE contact_quota
		SET used = used + ?, remaining = remaining - ?
		WHERE date = ?`,
		n, n, date,
	)
	if err != nil {
		return fmt.Errorf("failed to increment quota: %w", err)
	}
	return nil
}

// Remaining reports today's remaining credits, floored at zero
func (r *QuotaRepository) Remaining() (int, error) {
	q, err := r.Today()
	if err != nil {
		return 0, err
	}
	if q.Remaining < 0 {
		return 0, nil
	}
	return q.Remaining, nil
}

// Reconcile overwrites today's counter with an authoritative remaining
// value read from the external service. The external value wins.
func (r *QuotaRepository) Reconcile(remaining int) error {
	date := r.now().Format("2006-01-02")
	used := r.dailyLimit - remaining
	_, err := r.db.Exec(`
		INSERT INTO contact_quota (date, total_limit, used, remaining)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			used = excluded.used,
			remaining = excluded.remaining`,
		date, r.dailyLimit, used, remaining,
	)
	if err != nil {
		return fmt.Errorf("failed to reconcile quota: %w", err)
	}
	return nil
}

func (r *QuotaRepository) get(date string) (*models.QuotaDay, error) {
	q := &models.QuotaDay{}
	err := r.db.QueryRow(`
		SELECT date, total_limit, used, remaining
		FROM contact_quota WHERE date = ?`, date,
	).Scan(&q.Date, &q.TotalLimit, &q.Used, &q.Remaining)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}
