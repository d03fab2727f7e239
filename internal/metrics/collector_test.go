package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/jobpipe/jobpipe/internal/models"
)

type fakeLedger struct {
	counts map[models.OutreachStatus]int
}

func (f *fakeLedger) CountByStatus() (map[models.OutreachStatus]int, error) {
	return f.counts, nil
}

type fakeQuota struct {
	remaining int
}

func (f *fakeQuota) Remaining() (int, error) {
	return f.remaining, nil
}

func gaugeValue(t *testing.T, write func(*dto.Metric) error) float64 {
	t.Helper()
	var metric dto.Metric
	if err := write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestCollectorSample(t *testing.T) {
	m := New()
	ledger := &fakeLedger{counts: map[models.OutreachStatus]int{
		models.OutreachPending: 4,
		models.OutreachSent:    11,
		models.OutreachFailed:  1,
	}}
	quota := &fakeQuota{remaining: 23}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := os.WriteFile(dbPath, []byte("0123456789"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := NewCollector(m, ledger, quota, dbPath, time.Minute)
	c.Sample()

	if got := gaugeValue(t, m.QuotaRemaining.Write); got != 23 {
		t.Errorf("QuotaRemaining = %f, want 23", got)
	}
	if got := gaugeValue(t, m.DatabaseSizeBytes.Write); got != 10 {
		t.Errorf("DatabaseSizeBytes = %f, want 10", got)
	}

	pending, err := m.OutreachByStatus.GetMetricWithLabelValues("pending")
	if err != nil {
		t.Fatalf("Failed to get gauge: %v", err)
	}
	if got := gaugeValue(t, pending.Write); got != 4 {
		t.Errorf("OutreachByStatus{pending} = %f, want 4", got)
	}

	// Statuses absent from the counts map reset to zero
	bounced, err := m.OutreachByStatus.GetMetricWithLabelValues("bounced")
	if err != nil {
		t.Fatalf("Failed to get gauge: %v", err)
	}
	if got := gaugeValue(t, bounced.Write); got != 0 {
		t.Errorf("OutreachByStatus{bounced} = %f, want 0", got)
	}
}

func TestCollectorNilSources(t *testing.T) {
	m := New()
	c := NewCollector(m, nil, nil, "", time.Minute)

	// Must not panic without ledger, quota, or database path
	c.Sample()

	if got := gaugeValue(t, m.Goroutines.Write); got <= 0 {
		t.Errorf("Goroutines = %f, want > 0", got)
	}
}
