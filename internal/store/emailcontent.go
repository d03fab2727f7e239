package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jobpipe/jobpipe/internal/models"
)

// EmailContentRepository caches generated email copy per cache key.
// Rows expire; expired rows are never returned even if still stored.
type EmailContentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewEmailContentRepository(db *DB) *EmailContentRepository {
	return &EmailContentRepository{db: db.DB, now: time.Now}
}

// Get returns cached content, or nil if missing or expired
func (r *EmailContentRepository) Get(cacheKey string) (*models.EmailContent, error) {
	c := &models.EmailContent{}
	var si, sf1, sf2, intro, f1, f2 sql.NullString
	err := r.db.QueryRow(`
		SELECT subject_initial, subject_followup1, subject_followup2, intro, followup1, followup2
		FROM email_content
		WHERE cache_key = ? AND expires_at > ?`,
		cacheKey, r.now().UTC(),
	).Scan(&si, &sf1, &sf2, &intro, &f1, &f2)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.SubjectInitial = si.String
	c.SubjectFollowup1 = sf1.String
	c.SubjectFollowup2 = sf2.String
	c.Intro = intro.String
	c.Followup1 = f1.String
	c.Followup2 = f2.String
	return c, nil
}

// Save upserts generated content with a TTL
func (r *EmailContentRepository) Save(cacheKey, company, jobTitle string, content *models.EmailContent, ttl time.Duration) error {
	expiresAt := r.now().UTC().Add(ttl)
	_, err := r.db.Exec(`
		INSERT INTO email_content (
			cache_key, company, job_title,
			subject_initial, subject_followup1, subject_followup2,
			intro, followup1, followup2, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			subject_initial   = excluded.subject_initial,
			subject_followup1 = excluded.subject_followup1,
			subject_followup2 = excluded.subject_followup2,
			intro             = excluded.intro,
			followup1         = excluded.followup1,
			followup2         = excluded.followup2,
			expires_at        = excluded.expires_at,
			created_at        = CURRENT_TIMESTAMP`,
		cacheKey, company, jobTitle,
		content.SubjectInitial, content.SubjectFollowup1, content.SubjectFollowup2,
		content.Intro, content.Followup1, content.Followup2,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save email content: %w", err)
	}
	return nil
}
