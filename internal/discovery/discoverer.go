// Package discovery finds recruiter contacts for a company through the
// contact-search service, spending as little daily quota as possible.
package discovery

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jobpipe/jobpipe/internal/contactsearch"
	"github.com/jobpipe/jobpipe/internal/metrics"
	"github.com/jobpipe/jobpipe/internal/models"
)

// Contact is one discovered recruiter candidate
type Contact struct {
	Name       string
	Position   string
	Email      string
	Confidence models.Confidence
}

// QuotaSpender accounts for profile visits against the daily budget
type QuotaSpender interface {
	Increment(n int) error
	Remaining() (int, error)
}

// Discoverer runs the escalating three-pass search for one company.
// Every profile visit spends one quota credit, whether or not it yields
// a usable email.
type Discoverer struct {
	session contactsearch.Session
	quota   QuotaSpender

	// Collection stops early once a company has this many contacts
	minPerCompany int

	pause  func()
	logger *slog.Logger
}

// NewDiscoverer creates a discoverer. minPerCompany is the good-enough
// threshold, distinct from the per-cycle hard cap passed to Discover.
func NewDiscoverer(session contactsearch.Session, quota QuotaSpender, minPerCompany int, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		session:       session,
		quota:         quota,
		minPerCompany: minPerCompany,
		pause:         humanPause,
		logger:        logger,
	}
}

// humanPause waits a random interval between profile visits
func humanPause() {
	time.Sleep(time.Duration(1000+rand.Intn(2000)) * time.Millisecond)
}

// Discover returns up to maxContacts recruiter candidates for a company.
// Passes escalate: strict title filter first, then senior titles
// admitted, then no filter at all. Later passes downgrade confidence to
// manual review. Runs out of quota quietly; quota exhaustion is a
// terminal condition for the cycle, not an error.
func (d *Discoverer) Discover(ctx context.Context, company string, maxContacts int) ([]Contact, error) {
	if maxContacts <= 0 {
		return nil, nil
	}

	var found []Contact

	// Profiles already visited this cycle. A visit that yielded nothing
	// must not be paid for again in a later pass.
	visited := make(map[string]bool)

	// Pass 1: title filter, email required, senior titles excluded
	for _, term := range hrSearchTerms {
		if len(found) >= maxContacts || len(found) >= d.minPerCompany {
			break
		}
		batch, err := d.scanPass(ctx, contactsearch.Query{
			Company:      company,
			TitleFilter:  term,
			RequireEmail: true,
		}, maxContacts-len(found), true, false, found, visited)
		if err != nil {
			return found, err
		}
		found = append(found, batch...)
	}

	// Pass 2: admit senior titles, downgrade everything to manual review
	if len(found) < d.minPerCompany {
		d.logger.Debug("relaxing seniority filter", "company", company)
		for _, term := range hrSearchTerms {
			if len(found) >= maxContacts {
				break
			}
			batch, err := d.scanPass(ctx, contactsearch.Query{
				Company:      company,
				TitleFilter:  term,
				RequireEmail: true,
			}, maxContacts-len(found), false, true, found, visited)
			if err != nil {
				return found, err
			}
			found = append(found, batch...)
			if len(found) >= d.minPerCompany {
				break
			}
		}
	}

	// Pass 3: no title filter, no email requirement
	if len(found) < d.minPerCompany {
		d.logger.Debug("unfiltered fallback", "company", company)
		batch, err := d.scanPass(ctx, contactsearch.Query{
			Company: company,
		}, maxContacts-len(found), true, true, found, visited)
		if err != nil {
			return found, err
		}
		found = append(found, batch...)
	}

	return found, nil
}

// scanPass runs one search and visits qualifying cards until the target
// is met or quota runs dry.
func (d *Discoverer) scanPass(ctx context.Context, q contactsearch.Query, target int, excludeSenior, fallback bool, already []Contact, visited map[string]bool) ([]Contact, error) {
	if target <= 0 {
		return nil, nil
	}

	cards, err := d.session.Search(ctx, q)
	if err != nil {
		d.logger.Warn("search failed", "company", q.Company, "title", q.TitleFilter, "error", err)
		return nil, nil
	}

	var found []Contact
	for _, card := range cards {
		if len(found) >= target {
			break
		}

		confidence, ok := ClassifyTitle(card.Title)
		if !ok {
			continue
		}
		if excludeSenior && IsExcludedTitle(card.Title) {
			continue
		}
		if q.RequireEmail && !card.HasEmailIndicator {
			continue
		}
		if visited[card.DetailURL] || seen(already, found, card.Name) {
			continue
		}

		remaining, err := d.quota.Remaining()
		if err != nil {
			return found, err
		}
		if remaining <= 0 {
			d.logger.Info("quota exhausted, stopping discovery", "company", q.Company)
			return found, nil
		}

		d.pause()
		visited[card.DetailURL] = true
		profile, err := d.session.VisitProfile(ctx, card.DetailURL)

		// The visit spends a credit even when it fails or yields nothing
		if ierr := d.quota.Increment(1); ierr != nil {
			return found, ierr
		}
		metrics.IncProfileVisits()

		if err != nil {
			d.logger.Warn("profile visit failed", "name", card.Name, "error", err)
			continue
		}
		if profile.Email == "" {
			d.logger.Debug("no email on profile, discarding", "name", card.Name)
			continue
		}

		if fallback {
			confidence = models.ConfidenceManualReview
		}

		metrics.IncContactsDiscovered(string(confidence))
		found = append(found, Contact{
			Name:       card.Name,
			Position:   card.Title,
			Email:      profile.Email,
			Confidence: confidence,
		})
	}

	return found, nil
}

func seen(already, found []Contact, name string) bool {
	for _, c := range already {
		if c.Name == name {
			return true
		}
	}
	for _, c := range found {
		if c.Name == name {
			return true
		}
	}
	return false
}
