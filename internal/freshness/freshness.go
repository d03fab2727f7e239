// Package freshness re-validates stored recruiter contacts based on
// how long ago they were last verified.
package freshness

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jobpipe/jobpipe/internal/contactsearch"
	"github.com/jobpipe/jobpipe/internal/metrics"
	"github.com/jobpipe/jobpipe/internal/models"
)

// Tier is the verification depth required for a recruiter
type Tier int

const (
	// TierTrust means the contact was verified recently enough to use as-is
	TierTrust Tier = iota
	// TierLightweight means a cheap existence check is required
	TierLightweight
	// TierFullReverify means the contact's profile must be re-read
	TierFullReverify
)

func (t Tier) String() string {
	switch t {
	case TierTrust:
		return "trust"
	case TierLightweight:
		return "lightweight"
	case TierFullReverify:
		return "full_reverify"
	}
	return "unknown"
}

// Classify maps the age of a recruiter's last verification onto a tier.
// trustDays and reverifyDays are the two thresholds, trustDays smaller.
func Classify(age time.Duration, trustDays, reverifyDays int) Tier {
	days := int(age.Hours() / 24)
	switch {
	case days < trustDays:
		return TierTrust
	case days < reverifyDays:
		return TierLightweight
	default:
		return TierFullReverify
	}
}

// Outcome is the result of verifying one recruiter
type Outcome string

const (
	// OutcomeTrusted means no check was needed
	OutcomeTrusted Outcome = "trusted"
	// OutcomeVerified means the contact was confirmed (fields possibly updated)
	OutcomeVerified Outcome = "verified"
	// OutcomeInactive means the contact could not be located and was retired
	OutcomeInactive Outcome = "inactive"
	// OutcomeUnverified means the check itself failed; the contact is
	// left untouched and treated as usable for this run.
	OutcomeUnverified Outcome = "unverified"
)

// RecruiterStore is the subset of recruiter persistence the verifier needs
type RecruiterStore interface {
	TouchVerified(id string) error
	Update(id, name, position, email string) error
	MarkInactive(id, reason string) error
}

// Verifier drives tier-appropriate freshness checks. Profile visits made
// here are re-reads of known contacts and do not spend discovery quota.
type Verifier struct {
	session contactsearch.Session
	store   RecruiterStore

	trustDays    int
	reverifyDays int

	now    func() time.Time
	logger *slog.Logger
}

// NewVerifier creates a verifier with the given tier thresholds in days
func NewVerifier(session contactsearch.Session, store RecruiterStore, trustDays, reverifyDays int, logger *slog.Logger) *Verifier {
	return &Verifier{
		session:      session,
		store:        store,
		trustDays:    trustDays,
		reverifyDays: reverifyDays,
		now:          time.Now,
		logger:       logger,
	}
}

// Verify checks one recruiter and applies the resulting state change.
// Check failures return OutcomeUnverified with a nil error: verification
// must never block the rest of the pipeline.
func (v *Verifier) Verify(ctx context.Context, rec *models.Recruiter) (Outcome, error) {
	tier := Classify(v.now().Sub(rec.VerifiedAt), v.trustDays, v.reverifyDays)

	var outcome Outcome
	var err error
	switch tier {
	case TierTrust:
		outcome = OutcomeTrusted
	case TierLightweight:
		outcome, err = v.lightweight(ctx, rec)
	default:
		outcome, err = v.fullReverify(ctx, rec)
	}

	metrics.IncFreshnessChecks(string(outcome))
	return outcome, err
}

// lightweight looks for the recruiter's name in a company search.
// No profile is visited, so the check is quota-free by construction.
func (v *Verifier) lightweight(ctx context.Context, rec *models.Recruiter) (Outcome, error) {
	cards, err := v.session.Search(ctx, contactsearch.Query{Company: rec.Company})
	if err != nil {
		v.logger.Warn("lightweight check failed, leaving contact as-is",
			"recruiter", rec.Email, "error", err)
		return OutcomeUnverified, nil
	}

	if findCard(cards, rec.Name) != nil {
		if err := v.store.TouchVerified(rec.ID); err != nil {
			return OutcomeUnverified, err
		}
		return OutcomeVerified, nil
	}

	v.logger.Debug("name not in company search, escalating",
		"recruiter", rec.Email, "company", rec.Company)
	return v.fullReverify(ctx, rec)
}

// fullReverify re-reads the recruiter's profile and reconciles stored
// fields with what the service currently shows.
func (v *Verifier) fullReverify(ctx context.Context, rec *models.Recruiter) (Outcome, error) {
	cards, err := v.session.Search(ctx, contactsearch.Query{Company: rec.Company})
	if err != nil {
		v.logger.Warn("reverify search failed, leaving contact as-is",
			"recruiter", rec.Email, "error", err)
		return OutcomeUnverified, nil
	}

	card := findCard(cards, rec.Name)
	if card == nil {
		reason := "no longer found at " + rec.Company
		if err := v.store.MarkInactive(rec.ID, reason); err != nil {
			return OutcomeUnverified, err
		}
		v.logger.Info("recruiter retired", "recruiter", rec.Email, "reason", reason)
		return OutcomeInactive, nil
	}

	profile, err := v.session.VisitProfile(ctx, card.DetailURL)
	if err != nil {
		v.logger.Warn("profile visit failed, leaving contact as-is",
			"recruiter", rec.Email, "error", err)
		return OutcomeUnverified, nil
	}

	// The search is scoped to rec.Company, but the profile is the
	// authority: a different company there means the person moved on.
	if profile.Company != "" && !strings.EqualFold(strings.TrimSpace(profile.Company), strings.TrimSpace(rec.Company)) {
		reason := "moved to " + profile.Company
		if err := v.store.MarkInactive(rec.ID, reason); err != nil {
			return OutcomeUnverified, err
		}
		v.logger.Info("recruiter retired", "recruiter", rec.Email, "reason", reason)
		return OutcomeInactive, nil
	}

	name := rec.Name
	position := rec.Position
	email := rec.Email
	if card.Title != "" {
		position = card.Title
	}
	if profile.Title != "" {
		position = profile.Title
	}
	if profile.Email != "" {
		email = profile.Email
	}

	// Update refreshes verified_at even when nothing changed
	if err := v.store.Update(rec.ID, name, position, email); err != nil {
		return OutcomeUnverified, err
	}
	return OutcomeVerified, nil
}

func findCard(cards []contactsearch.Card, name string) *contactsearch.Card {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil
	}
	for i := range cards {
		if strings.ToLower(strings.TrimSpace(cards[i].Name)) == want {
			return &cards[i]
		}
	}
	return nil
}
