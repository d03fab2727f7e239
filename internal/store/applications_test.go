package store

import (
	"testing"

	"github.com/jobpipe/jobpipe/internal/models"
)

func TestApplicationAdd(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	id, err := repo.Add(&models.Application{
		Company: "Acme",
		JobURL:  "https://jobs.acme.test/1",
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if id == "" {
		t.Fatal("Add() returned empty id")
	}

	app, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if app == nil {
		t.Fatal("GetByID() returned nil")
	}
	if app.Company != "Acme" {
		t.Errorf("Company = %q, want %q", app.Company, "Acme")
	}
	if app.Status != models.ApplicationActive {
		t.Errorf("Status = %q, want active", app.Status)
	}
	if app.AppliedDate == "" {
		t.Error("AppliedDate not defaulted")
	}
}

func TestApplicationAddDuplicateURL(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	first, err := repo.Add(&models.Application{Company: "Acme", JobURL: "https://jobs.acme.test/1"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	second, err := repo.Add(&models.Application{Company: "Acme", JobURL: "https://jobs.acme.test/1"})
	if err != nil {
		t.Fatalf("Add() duplicate error = %v", err)
	}
	if second != first {
		t.Errorf("duplicate Add() = %q, want existing id %q", second, first)
	}
}

func TestApplicationAddMissingFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	if _, err := repo.Add(&models.Application{JobURL: "https://x.test"}); err == nil {
		t.Error("Add() without company expected error")
	}
	if _, err := repo.Add(&models.Application{Company: "Acme"}); err == nil {
		t.Error("Add() without job URL expected error")
	}
}

func TestApplicationListActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	older, _ := repo.Add(&models.Application{Company: "Old", JobURL: "https://o.test", AppliedDate: "2026-01-01"})
	newer, _ := repo.Add(&models.Application{Company: "New", JobURL: "https://n.test", AppliedDate: "2026-02-01"})
	closed, _ := repo.Add(&models.Application{Company: "Closed", JobURL: "https://c.test", AppliedDate: "2026-01-15"})
	if err := repo.SetStatus(closed, models.ApplicationInactive); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	apps, err := repo.ListActive()
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("ListActive() returned %d rows, want 2", len(apps))
	}
	if apps[0].ID != older || apps[1].ID != newer {
		t.Error("ListActive() not ordered oldest applied first")
	}
	if apps[0].AppliedDate != "2026-01-01" {
		t.Errorf("AppliedDate = %q, want 2026-01-01", apps[0].AppliedDate)
	}
}

func TestCompaniesNeedingDiscovery(t *testing.T) {
	db := setupTestDB(t)
	apps := NewApplicationRepository(db)
	recs := NewRecruiterRepository(db)

	// Two applications at the same company, applied on different days,
	// plus one company that already has enough recruiters.
	a1, _ := apps.Add(&models.Application{Company: "Acme", JobURL: "https://a.test/1", AppliedDate: "2026-01-01"})
	apps.Add(&models.Application{Company: "Acme", JobURL: "https://a.test/2", AppliedDate: "2026-01-05"})
	b1, _ := apps.Add(&models.Application{Company: "Beta", JobURL: "https://b.test/1", AppliedDate: "2026-01-02"})

	for _, email := range []string{"one@beta.test", "two@beta.test"} {
		id, err := recs.Add(&models.Recruiter{Company: "Beta", Name: "R", Email: email})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if err := recs.LinkToApplication(b1, id); err != nil {
			t.Fatalf("LinkToApplication() error = %v", err)
		}
	}

	companies, err := apps.CompaniesNeedingDiscovery(2)
	if err != nil {
		t.Fatalf("CompaniesNeedingDiscovery() error = %v", err)
	}
	if len(companies) != 1 || companies[0] != "Acme" {
		t.Fatalf("CompaniesNeedingDiscovery() = %v, want [Acme]", companies)
	}

	// An inactive recruiter must not count toward the threshold
	rid, _ := recs.Add(&models.Recruiter{Company: "Acme", Name: "Gone", Email: "gone@acme.test"})
	recs.LinkToApplication(a1, rid)
	recs.MarkInactive(rid, "left company")

	companies, err = apps.CompaniesNeedingDiscovery(1)
	if err != nil {
		t.Fatalf("CompaniesNeedingDiscovery() error = %v", err)
	}
	if len(companies) != 1 || companies[0] != "Acme" {
		t.Fatalf("CompaniesNeedingDiscovery() = %v, want [Acme] (inactive recruiter ignored)", companies)
	}
}
