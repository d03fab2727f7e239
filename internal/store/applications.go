package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobpipe/jobpipe/internal/models"
)

// ApplicationRepository manages rows in the applications table
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *DB) *ApplicationRepository {
	return &ApplicationRepository{db: db.DB}
}

// Add inserts a new application. A duplicate job URL is not an error:
// the id of the existing row is returned instead.
func (r *ApplicationRepository) Add(app *models.Application) (string, error) {
	if app.Company == "" || app.JobURL == "" {
		return "", fmt.Errorf("company and job URL are required")
	}
	if app.AppliedDate == "" {
		app.AppliedDate = time.Now().Format("2006-01-02")
	}
	if app.Status == "" {
		app.Status = models.ApplicationActive
	}
	app.ID = uuid.New().String()
	app.CreatedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO applications (id, company, job_url, job_title, applied_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.Company, app.JobURL, nullable(app.JobTitle), app.AppliedDate, app.Status, app.CreatedAt,
	)
	if err == nil {
		return app.ID, nil
	}

	// Unique job_url violation: reuse the existing row
	var existing string
	lookupErr := r.db.QueryRow("SELECT id FROM applications WHERE job_url = ?", app.JobURL).Scan(&existing)
	if lookupErr == nil {
		return existing, nil
	}

	return "", fmt.Errorf("failed to add application: %w", err)
}

// GetByID returns an application, or nil if not found
func (r *ApplicationRepository) GetByID(id string) (*models.Application, error) {
	app := &models.Application{}
	var title sql.NullString
	err := r.db.QueryRow(`
		SELECT id, company, job_url, job_title, applied_date, status, created_at
		FROM applications WHERE id = ?`, id,
	).Scan(&app.ID, &app.Company, &app.JobURL, &title, &app.AppliedDate, &app.Status, &app.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	app.JobTitle = title.String
	return app, nil
}

// ListActive returns active applications, oldest applied first
func (r *ApplicationRepository) ListActive() ([]models.Application, error) {
	rows, err := r.db.Query(`
		SELECT id, company, job_url, job_title, applied_date, status, created_at
		FROM applications
		WHERE status = 'active'
		ORDER BY applied_date ASC, created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var app models.Application
		var title sql.NullString
		if err := rows.Scan(&app.ID, &app.Company, &app.JobURL, &title, &app.AppliedDate, &app.Status, &app.CreatedAt); err != nil {
			return nil, err
		}
		app.JobTitle = title.String
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// SetStatus flips an application between active and inactive.
// Applications are never hard-deleted.
func (r *ApplicationRepository) SetStatus(id string, status models.ApplicationStatus) error {
	_, err := r.db.Exec("UPDATE applications SET status = ? WHERE id = ?", status, id)
	return err
}

// CompaniesNeedingDiscovery returns the companies of active applications
// that have fewer than minRecruiters active recruiters linked, oldest
// application first, de-duplicated preserving order. The order matters:
// the quota allocator hands leftover credits to the front of the list.
func (r *ApplicationRepository) CompaniesNeedingDiscovery(minRecruiters int) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT a.company, COUNT(r.id) AS recruiter_count
		FROM applications a
		LEFT JOIN application_recruiters ar ON ar.application_id = a.id
		LEFT JOIN recruiters r ON r.id = ar.recruiter_id AND r.status = 'active'
		WHERE a.status = 'active'
		GROUP BY a.id, a.company
		HAVING recruiter_count < ?
		ORDER BY a.applied_date ASC, a.created_at ASC`, minRecruiters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	companies := []string{}
	for rows.Next() {
		var company string
		var count int
		if err := rows.Scan(&company, &count); err != nil {
			return nil, err
		}
		if !seen[company] {
			seen[company] = true
			companies = append(companies, company)
		}
	}
	return companies, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
