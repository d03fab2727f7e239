// Package store provides the sqlite persistence layer for the pipeline.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite handle shared by all repositories
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the pipeline database
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// Migrate creates all tables if they do not exist
func (db *DB) Migrate() error {
	migrations := []string{
		migrationApplications,
		migrationRecruiters,
		migrationApplicationRecruiters,
		migrationOutreach,
		migrationContactQuota,
		migrationEmailContent,
		migrationModelUsage,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Cleanup removes expired cached content and stale usage counters.
// Called once at startup.
func (db *DB) Cleanup(usageRetention time.Duration) error {
	if _, err := db.Exec("DELETE FROM email_content WHERE expires_at <= ?", time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to purge expired email content: %w", err)
	}

	cutoff := time.Now().Add(-usageRetention).Format("2006-01-02")
	if _, err := db.Exec("DELETE FROM model_usage WHERE date < ?", cutoff); err != nil {
		return fmt.Errorf("failed to purge old model usage: %w", err)
	}

	return nil
}

const migrationApplications = `
CREATE TABLE IF NOT EXISTS applications (
    id           TEXT PRIMARY KEY,
    company      TEXT NOT NULL,
    job_url      TEXT NOT NULL UNIQUE,
    job_title    TEXT,
    applied_date TEXT NOT NULL,
    status       TEXT DEFAULT 'active',
    created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
`

const migrationRecruiters = `
CREATE TABLE IF NOT EXISTS recruiters (
    id              TEXT PRIMARY KEY,
    company         TEXT NOT NULL,
    name            TEXT,
    position        TEXT,
    email           TEXT UNIQUE NOT NULL,
    confidence      TEXT,
    status          TEXT DEFAULT 'active',
    inactive_reason TEXT,
    verified_at     TIMESTAMP,
    created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_recruiters_company ON recruiters(company);
`

const migrationApplicationRecruiters = `
CREATE TABLE IF NOT EXISTS application_recruiters (
    id             TEXT PRIMARY KEY,
    application_id TEXT NOT NULL REFERENCES applications(id),
    recruiter_id   TEXT NOT NULL REFERENCES recruiters(id),
    created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(application_id, recruiter_id)
);
`

const migrationOutreach = `
CREATE TABLE IF NOT EXISTS outreach (
    id             TEXT PRIMARY KEY,
    recruiter_id   TEXT NOT NULL REFERENCES recruiters(id),
    application_id TEXT NOT NULL REFERENCES applications(id),
    stage          TEXT DEFAULT 'initial',
    status         TEXT DEFAULT 'pending',
    replied        INTEGER DEFAULT 0,
    scheduled_for  TEXT,
    sent_at        TIMESTAMP,
    created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_outreach_status ON outreach(status);
CREATE INDEX IF NOT EXISTS idx_outreach_pair ON outreach(recruiter_id, application_id);
`

const migrationContactQuota = `
CREATE TABLE IF NOT EXISTS contact_quota (
    date        TEXT PRIMARY KEY,
    total_limit INTEGER NOT NULL,
    used        INTEGER DEFAULT 0,
    remaining   INTEGER NOT NULL
);
`

const migrationEmailContent = `
CREATE TABLE IF NOT EXISTS email_content (
    cache_key         TEXT PRIMARY KEY,
    company           TEXT NOT NULL,
    job_title         TEXT NOT NULL,
    subject_initial   TEXT,
    subject_followup1 TEXT,
    subject_followup2 TEXT,
    intro             TEXT,
    followup1         TEXT,
    followup2         TEXT,
    created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    expires_at        TIMESTAMP NOT NULL
);
`

const migrationModelUsage = `
CREATE TABLE IF NOT EXISTS model_usage (
    model TEXT,
    date  TEXT,
    count INTEGER,
    PRIMARY KEY (model, date)
);
`
