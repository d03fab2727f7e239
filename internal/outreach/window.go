package outreach

import (
	"fmt"
	"time"

	"github.com/jobpipe/jobpipe/internal/config"
)

// GateState describes whether sending is currently allowed
type GateState string

const (
	// GateWait means the window has not opened yet today
	GateWait GateState = "wait"
	// GateSend means sending is allowed (window or grace period)
	GateSend GateState = "send"
	// GateCutoff means the hard deadline passed; work moves to tomorrow
	GateCutoff GateState = "cutoff"
)

// Gate decides whether "now" is inside the permitted send window.
// All comparisons use wall-clock time in the configured timezone: the
// business rule is recipients' business hours, not server hours.
type Gate struct {
	startHour int
	endHour   int
	grace     time.Duration
	loc       *time.Location
}

// NewGate builds a gate from outreach settings
func NewGate(cfg config.OutreachConfig) (*Gate, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return &Gate{
		startHour: cfg.WindowStartHour,
		endHour:   cfg.WindowEndHour,
		grace:     cfg.GracePeriod,
		loc:       loc,
	}, nil
}

// State classifies an instant
func (g *Gate) State(now time.Time) GateState {
	local := now.In(g.loc)

	open := time.Date(local.Year(), local.Month(), local.Day(), g.startHour, 0, 0, 0, g.loc)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), g.endHour, 0, 0, 0, g.loc).Add(g.grace)

	switch {
	case local.Before(open):
		return GateWait
	case local.Before(cutoff):
		return GateSend
	default:
		return GateCutoff
	}
}

// NextOpen returns the next instant the window opens: today's opening
// if still ahead, otherwise tomorrow's.
func (g *Gate) NextOpen(now time.Time) time.Time {
	local := now.In(g.loc)
	open := time.Date(local.Year(), local.Month(), local.Day(), g.startHour, 0, 0, 0, g.loc)
	if local.Before(open) {
		return open
	}
	return open.AddDate(0, 0, 1)
}

// Today returns the current date string in the gate's timezone
func (g *Gate) Today(now time.Time) string {
	return now.In(g.loc).Format("2006-01-02")
}

// Tomorrow returns tomorrow's date string in the gate's timezone
func (g *Gate) Tomorrow(now time.Time) string {
	return now.In(g.loc).AddDate(0, 0, 1).Format("2006-01-02")
}
