// Package models defines the entities persisted by the outreach pipeline.
package models

import "time"

// ApplicationStatus represents the lifecycle state of a job application
type ApplicationStatus string

const (
	ApplicationActive   ApplicationStatus = "active"
	ApplicationInactive ApplicationStatus = "inactive"
)

// Application represents a job the user applied to
type Application struct {
	ID          string            `json:"id"`
	Company     string            `json:"company"`
	JobURL      string            `json:"job_url"`
	JobTitle    string            `json:"job_title,omitempty"`
	AppliedDate string            `json:"applied_date"` // YYYY-MM-DD
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Confidence classifies how a recruiter contact was matched
type Confidence string

const (
	ConfidenceAuto         Confidence = "auto"
	ConfidenceManualReview Confidence = "manual_review"
)

// RecruiterStatus represents whether a recruiter contact is still usable
type RecruiterStatus string

const (
	RecruiterActive   RecruiterStatus = "active"
	RecruiterInactive RecruiterStatus = "inactive"
)

// Recruiter represents a company-level recruiter contact.
// Email is the sole identity key: re-discovering the same email must
// resolve to the existing row, never a duplicate.
type Recruiter struct {
	ID             string          `json:"id"`
	Company        string          `json:"company"`
	Name           string          `json:"name"`
	Position       string          `json:"position"`
	Email          string          `json:"email"`
	Confidence     Confidence      `json:"confidence"`
	Status         RecruiterStatus `json:"status"`
	InactiveReason string          `json:"inactive_reason,omitempty"`
	VerifiedAt     time.Time       `json:"verified_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Stage is a step in the outreach sequence
type Stage string

const (
	StageInitial   Stage = "initial"
	StageFollowup1 Stage = "followup1"
	StageFollowup2 Stage = "followup2"
)

// NextStage returns the successor stage, or "" if the sequence is complete.
func NextStage(s Stage) Stage {
	switch s {
	case StageInitial:
		return StageFollowup1
	case StageFollowup1:
		return StageFollowup2
	}
	return ""
}

// OutreachStatus represents the send state of an outreach record
type OutreachStatus string

const (
	OutreachPending OutreachStatus = "pending"
	OutreachSent    OutreachStatus = "sent"
	OutreachFailed  OutreachStatus = "failed"
	OutreachBounced OutreachStatus = "bounced"
)

// Outreach represents one send attempt for a (recruiter, application, stage)
// triple. Rows are a historical ledger: they are rescheduled, never deleted.
type Outreach struct {
	ID            string         `json:"id"`
	RecruiterID   string         `json:"recruiter_id"`
	ApplicationID string         `json:"application_id"`
	Stage         Stage          `json:"stage"`
	Status        OutreachStatus `json:"status"`
	Replied       bool           `json:"replied"`
	ScheduledFor  string         `json:"scheduled_for"` // YYYY-MM-DD
	SentAt        *time.Time     `json:"sent_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// PendingOutreach is a due outreach row joined with its recruiter and
// application, as returned by the send queue query.
type PendingOutreach struct {
	Outreach
	RecruiterName  string `json:"recruiter_name"`
	RecruiterEmail string `json:"recruiter_email"`
	Company        string `json:"company"`
	JobURL         string `json:"job_url"`
	JobTitle       string `json:"job_title,omitempty"`
}

// QuotaDay tracks contact-search credits for one calendar day.
// Invariant: Used + Remaining == TotalLimit after every mutation.
type QuotaDay struct {
	Date       string `json:"date"` // YYYY-MM-DD
	TotalLimit int    `json:"total_limit"`
	Used       int    `json:"used"`
	Remaining  int    `json:"remaining"`
}

// EmailContent holds generated subjects and bodies for one application
type EmailContent struct {
	SubjectInitial   string `json:"subject_initial"`
	SubjectFollowup1 string `json:"subject_followup1"`
	SubjectFollowup2 string `json:"subject_followup2"`
	Intro            string `json:"intro"`
	Followup1        string `json:"followup1"`
	Followup2        string `json:"followup2"`
}

// Subject returns the generated subject line for a stage, or "".
func (c *EmailContent) Subject(stage Stage) string {
	switch stage {
	case StageInitial:
		return c.SubjectInitial
	case StageFollowup1:
		return c.SubjectFollowup1
	case StageFollowup2:
		return c.SubjectFollowup2
	}
	return ""
}

// Body returns the generated body fragment for a stage, or "".
func (c *EmailContent) Body(stage Stage) string {
	switch stage {
	case StageInitial:
		return c.Intro
	case StageFollowup1:
		return c.Followup1
	case StageFollowup2:
		return c.Followup2
	}
	return ""
}

// CompanyNeed describes a company that still needs recruiter discovery
type CompanyNeed struct {
	Company        string `json:"company"`
	RecruiterCount int    `json:"recruiter_count"`
}
