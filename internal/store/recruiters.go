package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobpipe/jobpipe/internal/models"
)

// RecruiterRepository manages recruiters and their application links
type RecruiterRepository struct {
	db *sql.DB
}

func NewRecruiterRepository(db *DB) *RecruiterRepository {
	return &RecruiterRepository{db: db.DB}
}

// Add inserts a recruiter contact. Email is the identity key: if the
// email already exists the id of the existing row is returned.
func (r *RecruiterRepository) Add(rec *models.Recruiter) (string, error) {
	if rec.Email == "" {
		return "", fmt.Errorf("recruiter email is required")
	}
	if rec.Status == "" {
		rec.Status = models.RecruiterActive
	}
	rec.ID = uuid.New().String()
	rec.VerifiedAt = time.Now()
	rec.CreatedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO recruiters (id, company, name, position, email, confidence, status, verified_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Company, rec.Name, rec.Position, rec.Email, rec.Confidence, rec.Status, rec.VerifiedAt, rec.CreatedAt,
	)
	if err == nil {
		return rec.ID, nil
	}

	var existing string
	lookupErr := r.db.QueryRow("SELECT id FROM recruiters WHERE email = ?", rec.Email).Scan(&existing)
	if lookupErr == nil {
		return existing, nil
	}

	return "", fmt.Errorf("failed to add recruiter: %w", err)
}

// GetByID returns a recruiter, or nil if not found
func (r *RecruiterRepository) GetByID(id string) (*models.Recruiter, error) {
	return r.scanOne(r.db.QueryRow(selectRecruiter+" WHERE id = ?", id))
}

// GetByEmail returns the recruiter holding an email, or nil
func (r *RecruiterRepository) GetByEmail(email string) (*models.Recruiter, error) {
	return r.scanOne(r.db.QueryRow(selectRecruiter+" WHERE email = ?", email))
}

// ListActiveByCompany returns active recruiters at a company
func (r *RecruiterRepository) ListActiveByCompany(company string) ([]models.Recruiter, error) {
	rows, err := r.db.Query(selectRecruiter+`
		WHERE company = ? AND status = 'active'
		ORDER BY created_at ASC`, company)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// Update rewrites the mutable contact fields after a re-verification.
// Always refreshes verified_at.
func (r *RecruiterRepository) Update(id string, name, position, email string) error {
	_, err := r.db.Exec(`
		UPDATE recruiters SET name = ?, position = ?, email = ?, verified_at = ?
		WHERE id = ?`,
		name, position, email, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update recruiter: %w", err)
	}
	return nil
}

// TouchVerified refreshes verified_at without changing any other field
func (r *RecruiterRepository) TouchVerified(id string) error {
	_, err := r.db.Exec("UPDATE recruiters SET verified_at = ? WHERE id = ?", time.Now(), id)
	return err
}

// MarkInactive deactivates a recruiter and records why. The row is kept:
// the email must remain unique so the contact is never re-added.
func (r *RecruiterRepository) MarkInactive(id, reason string) error {
	_, err := r.db.Exec(`
		UPDATE recruiters SET status = 'inactive', inactive_reason = ?, verified_at = ?
		WHERE id = ?`,
		reason, time.Now(), id,
	)
	return err
}

// LinkToApplication links a recruiter to an application. Idempotent:
// re-linking an existing pair is a no-op.
func (r *RecruiterRepository) LinkToApplication(applicationID, recruiterID string) error {
	_, err := r.db.Exec(`
		INSERT INTO application_recruiters (id, application_id, recruiter_id)
		VALUES (?, ?, ?)
		ON CONFLICT(application_id, recruiter_id) DO NOTHING`,
		uuid.New().String(), applicationID, recruiterID,
	)
	if err != nil {
		return fmt.Errorf("failed to link recruiter: %w", err)
	}
	return nil
}

// ListForApplication returns the active recruiters linked to an application
func (r *RecruiterRepository) ListForApplication(applicationID string) ([]models.Recruiter, error) {
	rows, err := r.db.Query(`
		SELECT r.id, r.company, r.name, r.position, r.email, r.confidence, r.status, r.inactive_reason, r.verified_at, r.created_at
		FROM recruiters r
		INNER JOIN application_recruiters ar ON ar.recruiter_id = r.id
		WHERE ar.application_id = ? AND r.status = 'active'
		ORDER BY r.created_at ASC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// CountLinks returns the number of link rows for a pair. Used by tests
// to assert link idempotency.
func (r *RecruiterRepository) CountLinks(applicationID, recruiterID string) (int, error) {
	var n int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM application_recruiters
		WHERE application_id = ? AND recruiter_id = ?`,
		applicationID, recruiterID,
	).Scan(&n)
	return n, err
}

const selectRecruiter = `
	SELECT id, company, name, position, email, confidence, status, inactive_reason, verified_at, created_at
	FROM recruiters`

func (r *RecruiterRepository) scanOne(row *sql.Row) (*models.Recruiter, error) {
	rec := &models.Recruiter{}
	var reason sql.NullString
	var verifiedAt sql.NullTime
	err := row.Scan(&rec.ID, &rec.Company, &rec.Name, &rec.Position, &rec.Email,
		&rec.Confidence, &rec.Status, &reason, &verifiedAt, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.InactiveReason = reason.String
	rec.VerifiedAt = verifiedAt.Time
	return rec, nil
}

func (r *RecruiterRepository) scanAll(rows *sql.Rows) ([]models.Recruiter, error) {
	recs := []models.Recruiter{}
	for rows.Next() {
		var rec models.Recruiter
		var reason sql.NullString
		var verifiedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Company, &rec.Name, &rec.Position, &rec.Email,
			&rec.Confidence, &rec.Status, &reason, &verifiedAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.InactiveReason = reason.String
		rec.VerifiedAt = verifiedAt.Time
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
