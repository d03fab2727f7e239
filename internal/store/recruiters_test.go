package store

import (
	"testing"

	"github.com/jobpipe/jobpipe/internal/models"
)

func TestRecruiterAddDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecruiterRepository(db)

	first, err := repo.Add(&models.Recruiter{
		Company:    "Acme",
		Name:       "Jordan Hale",
		Position:   "Technical Recruiter",
		Email:      "jordan@acme.test",
		Confidence: models.ConfidenceAuto,
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Re-adding the same email N times must resolve to the same row
	for i := 0; i < 3; i++ {
		id, err := repo.Add(&models.Recruiter{
			Company: "Acme",
			Name:    "J. Hale",
			Email:   "jordan@acme.test",
		})
		if err != nil {
			t.Fatalf("Add() duplicate error = %v", err)
		}
		if id != first {
			t.Errorf("duplicate Add() = %q, want existing id %q", id, first)
		}
	}

	recs, err := repo.ListActiveByCompany("Acme")
	if err != nil {
		t.Fatalf("ListActiveByCompany() error = %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("row count for email = %d, want 1", len(recs))
	}
}

func TestRecruiterLinkIdempotent(t *testing.T) {
	db := setupTestDB(t)
	apps := NewApplicationRepository(db)
	recs := NewRecruiterRepository(db)

	appID, _ := apps.Add(&models.Application{Company: "Acme", JobURL: "https://a.test"})
	recID, _ := recs.Add(&models.Recruiter{Company: "Acme", Email: "r@acme.test"})

	if err := recs.LinkToApplication(appID, recID); err != nil {
		t.Fatalf("LinkToApplication() error = %v", err)
	}
	if err := recs.LinkToApplication(appID, recID); err != nil {
		t.Fatalf("LinkToApplication() second call error = %v", err)
	}

	n, err := recs.CountLinks(appID, recID)
	if err != nil {
		t.Fatalf("CountLinks() error = %v", err)
	}
	if n != 1 {
		t.Errorf("link rows = %d, want 1", n)
	}
}

func TestRecruiterMarkInactive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecruiterRepository(db)

	id, _ := repo.Add(&models.Recruiter{Company: "Acme", Email: "r@acme.test"})
	if err := repo.MarkInactive(id, "no longer listed at company"); err != nil {
		t.Fatalf("MarkInactive() error = %v", err)
	}

	rec, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rec.Status != models.RecruiterInactive {
		t.Errorf("Status = %q, want inactive", rec.Status)
	}
	if rec.InactiveReason != "no longer listed at company" {
		t.Errorf("InactiveReason = %q", rec.InactiveReason)
	}

	recs, err := repo.ListActiveByCompany("Acme")
	if err != nil {
		t.Fatalf("ListActiveByCompany() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("inactive recruiter still listed as active")
	}
}

func TestRecruiterUpdateRefreshesVerifiedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecruiterRepository(db)

	id, _ := repo.Add(&models.Recruiter{Company: "Acme", Name: "Old", Position: "Recruiter", Email: "r@acme.test"})
	before, _ := repo.GetByID(id)

	if err := repo.Update(id, "New Name", "Senior Recruiter", "new@acme.test"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	after, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if after.Name != "New Name" || after.Position != "Senior Recruiter" || after.Email != "new@acme.test" {
		t.Errorf("Update() did not rewrite fields: %+v", after)
	}
	if after.VerifiedAt.Before(before.VerifiedAt) {
		t.Error("Update() did not refresh verified_at")
	}
}

func TestRecruiterListForApplication(t *testing.T) {
	db := setupTestDB(t)
	apps := NewApplicationRepository(db)
	recs := NewRecruiterRepository(db)

	appID, _ := apps.Add(&models.Application{Company: "Acme", JobURL: "https://a.test"})
	active, _ := recs.Add(&models.Recruiter{Company: "Acme", Email: "a@acme.test"})
	inactive, _ := recs.Add(&models.Recruiter{Company: "Acme", Email: "b@acme.test"})
	recs.LinkToApplication(appID, active)
	recs.LinkToApplication(appID, inactive)
	recs.MarkInactive(inactive, "bounced")

	linked, err := recs.ListForApplication(appID)
	if err != nil {
		t.Fatalf("ListForApplication() error = %v", err)
	}
	if len(linked) != 1 || linked[0].ID != active {
		t.Errorf("ListForApplication() = %d rows, want only the active recruiter", len(linked))
	}
}
