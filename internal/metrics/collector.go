package metrics

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/jobpipe/jobpipe/internal/models"
)

// LedgerStats provides outreach row counts for the status gauges
type LedgerStats interface {
	CountByStatus() (map[models.OutreachStatus]int, error)
}

// QuotaStats provides the remaining search credits for today
type QuotaStats interface {
	Remaining() (int, error)
}

// Collector periodically samples pipeline state into gauges
type Collector struct {
	metrics  *Metrics
	ledger   LedgerStats
	quota    QuotaStats
	dbPath   string
	interval time.Duration

	startTime time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewCollector creates a collector over the given sources. ledger and
// quota may be nil; their gauges are then left untouched.
func NewCollector(m *Metrics, ledger LedgerStats, quota QuotaStats, dbPath string, interval time.Duration) *Collector {
	if interval == 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		metrics:   m,
		ledger:    ledger,
		quota:     quota,
		dbPath:    dbPath,
		interval:  interval,
		startTime: time.Now(),
		stopCh:    make(chan struct{}),
	}
}

// Start begins background sampling
func (c *Collector) Start(ctx context.Context) {
	c.Sample()
	c.wg.Add(1)
	go c.loop(ctx)
}

// Stop halts background sampling
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) loop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Sample()
		}
	}
}

// Sample refreshes every gauge once
func (c *Collector) Sample() {
	c.metrics.UptimeSeconds.Set(time.Since(c.startTime).Seconds())
	c.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))

	if c.dbPath != "" {
		if info, err := os.Stat(c.dbPath); err == nil {
			c.metrics.DatabaseSizeBytes.Set(float64(info.Size()))
		}
	}

	if c.ledger != nil {
		if counts, err := c.ledger.CountByStatus(); err == nil {
			for _, status := range []models.OutreachStatus{
				models.OutreachPending,
				models.OutreachSent,
				models.OutreachFailed,
				models.OutreachBounced,
			} {
				c.metrics.OutreachByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
			}
		}
	}

	if c.quota != nil {
		if remaining, err := c.quota.Remaining(); err == nil {
			c.metrics.QuotaRemaining.Set(float64(remaining))
		}
	}
}
