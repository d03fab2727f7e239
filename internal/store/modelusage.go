package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ModelUsageRepository tracks per-model daily call counts for the
// content generation API. Independent of the contact-search quota.
type ModelUsageRepository struct {
	db     *sql.DB
	limits map[string]int
	now    func() time.Time
}

// NewModelUsageRepository creates the repository with per-model daily
// limits. Models absent from the map have a limit of zero.
func NewModelUsageRepository(db *DB, limits map[string]int) *ModelUsageRepository {
	return &ModelUsageRepository{db: db.DB, limits: limits, now: time.Now}
}

// CanCall reports whether a model still has budget today
func (r *ModelUsageRepository) CanCall(model string) (bool, error) {
	count, err := r.usageToday(model)
	if err != nil {
		return false, err
	}
	return count < r.limits[model], nil
}

// Increment records one call to a model
func (r *ModelUsageRepository) Increment(model string) error {
	_, err := r.db.Exec(`
		INSERT INTO model_usage (model, date, count)
		VALUES (?, ?, 1)
		ON CONFLICT(model, date)
		DO UPDATE SET count = count + 1`,
		model, r.now().Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to increment model usage: %w", err)
	}
	return nil
}

// AllExhausted reports whether every configured model hit its limit.
// Quota exhaustion is a terminal condition for today, not an error.
func (r *ModelUsageRepository) AllExhausted() (bool, error) {
	for model := range r.limits {
		ok, err := r.CanCall(model)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

func (r *ModelUsageRepository) usageToday(model string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT count FROM model_usage WHERE model = ? AND date = ?`,
		model, r.now().Format("2006-01-02"),
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}
