package store

import (
	"testing"
	"time"

	"github.com/jobpipe/jobpipe/internal/models"
)

func seedPair(t *testing.T, db *DB) (string, string) {
	t.Helper()
	apps := NewApplicationRepository(db)
	recs := NewRecruiterRepository(db)

	appID, err := apps.Add(&models.Application{Company: "Acme", JobURL: "https://a.test", JobTitle: "Backend Engineer"})
	if err != nil {
		t.Fatalf("Add application error = %v", err)
	}
	recID, err := recs.Add(&models.Recruiter{Company: "Acme", Name: "Jordan", Email: "jordan@acme.test"})
	if err != nil {
		t.Fatalf("Add recruiter error = %v", err)
	}
	if err := recs.LinkToApplication(appID, recID); err != nil {
		t.Fatalf("LinkToApplication error = %v", err)
	}
	return recID, appID
}

func TestOutreachScheduleAndDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOutreachRepository(db)
	recID, appID := seedPair(t, db)

	today := time.Now().Format("2006-01-02")
	id, err := repo.Schedule(recID, appID, models.StageInitial, today)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	due, err := repo.ListDue(today)
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("ListDue() = %d rows, want 1", len(due))
	}
	if due[0].ID != id || due[0].RecruiterEmail != "jordan@acme.test" || due[0].Company != "Acme" {
		t.Errorf("ListDue() row = %+v", due[0])
	}

	// A record scheduled for tomorrow is not a candidate today
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	if _, err := repo.Schedule(recID, appID, models.StageFollowup1, tomorrow); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	due, _ = repo.ListDue(today)
	if len(due) != 1 {
		t.Errorf("ListDue() = %d rows, want 1 (future row excluded)", len(due))
	}
}

func TestOutreachRepliedExcludedFromDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOutreachRepository(db)
	recID, appID := seedPair(t, db)

	// Scheduled well in the past: replied must still exclude it
	id, _ := repo.Schedule(recID, appID, models.StageInitial, "2020-01-01")
	if err := repo.SetReplied(id, true); err != nil {
		t.Fatalf("SetReplied() error = %v", err)
	}

	due, err := repo.ListDue(time.Now().Format("2006-01-02"))
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}
	if len(due) != 0 {
		t.Errorf("ListDue() returned replied record")
	}
}

func TestOutreachInactiveRecruiterExcludedFromDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOutreachRepository(db)
	recs := NewRecruiterRepository(db)
	recID, appID := seedPair(t, db)

	repo.Schedule(recID, appID, models.StageInitial, "2020-01-01")
	recs.MarkInactive(recID, "hard bounce")

	due, err := repo.ListDue(time.Now().Format("2006-01-02"))
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}
	if len(due) != 0 {
		t.Errorf("ListDue() returned record for inactive recruiter")
	}
}

func TestOutreachLastSentStage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOutreachRepository(db)
	recID, appID := seedPair(t, db)

	stage, err := repo.LastSentStage(recID, appID)
	if err != nil {
		t.Fatalf("LastSentStage() error = %v", err)
	}
	if stage != "" {
		t.Errorf("LastSentStage() = %q, want empty with no sent rows", stage)
	}

	// Two rows marked sent back to back: insertion order must break the
	// tie, not the identical timestamps.
	first, _ := repo.Schedule(recID, appID, models.StageInitial, "2026-01-01")
	repo.MarkSent(first)
	second, _ := repo.Schedule(recID, appID, models.StageFollowup1, "2026-01-08")
	repo.MarkSent(second)

	stage, err = repo.LastSentStage(recID, appID)
	if err != nil {
		t.Fatalf("LastSentStage() error = %v", err)
	}
	if stage != models.StageFollowup1 {
		t.Errorf("LastSentStage() = %q, want followup1", stage)
	}
}

func TestOutreachMarkTransitions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOutreachRepository(db)
	recID, appID := seedPair(t, db)

	sent, _ := repo.Schedule(recID, appID, models.StageInitial, "2026-01-01")
	failed, _ := repo.Schedule(recID, appID, models.StageInitial, "2026-01-01")
	bounced, _ := repo.Schedule(recID, appID, models.StageInitial, "2026-01-01")

	repo.MarkSent(sent)
	repo.MarkFailed(failed)
	repo.MarkBounced(bounced)

	counts, err := repo.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	for status, want := range map[models.OutreachStatus]int{
		models.OutreachSent:    1,
		models.OutreachFailed:  1,
		models.OutreachBounced: 1,
	} {
		if counts[status] != want {
			t.Errorf("CountByStatus()[%s] = %d, want %d", status, counts[status], want)
		}
	}

	failedRows, err := repo.ListByStatus(models.OutreachFailed)
	if err != nil {
		t.Fatalf("ListByStatus() error = %v", err)
	}
	if len(failedRows) != 1 || failedRows[0].ID != failed {
		t.Errorf("ListByStatus(failed) = %+v", failedRows)
	}
}

func TestOutreachReschedule(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOutreachRepository(db)
	recID, appID := seedPair(t, db)

	a, _ := repo.Schedule(recID, appID, models.StageInitial, "2026-01-01")
	b, _ := repo.Schedule(recID, appID, models.StageFollowup1, "2026-01-01")

	if err := repo.Reschedule([]string{a, b}, "2026-01-02"); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}

	due, _ := repo.ListDue("2026-01-01")
	if len(due) != 0 {
		t.Errorf("ListDue() = %d rows after reschedule, want 0", len(due))
	}
	due, _ = repo.ListDue("2026-01-02")
	if len(due) != 2 {
		t.Errorf("ListDue() = %d rows on new date, want 2", len(due))
	}
}

func TestOutreachHasPendingOrSent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOutreachRepository(db)
	recID, appID := seedPair(t, db)

	ok, err := repo.HasPendingOrSent(recID, appID)
	if err != nil {
		t.Fatalf("HasPendingOrSent() error = %v", err)
	}
	if ok {
		t.Error("HasPendingOrSent() = true with no rows")
	}

	id, _ := repo.Schedule(recID, appID, models.StageInitial, "2026-01-01")
	if ok, _ = repo.HasPendingOrSent(recID, appID); !ok {
		t.Error("HasPendingOrSent() = false with pending row")
	}

	// Failed rows do not count: the pair is eligible to be scheduled again
	repo.MarkFailed(id)
	if ok, _ = repo.HasPendingOrSent(recID, appID); ok {
		t.Error("HasPendingOrSent() = true with only a failed row")
	}
}
