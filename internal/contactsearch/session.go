// Package contactsearch talks to the external contact-search service.
// The rest of the pipeline only sees the Session interface; the HTTP
// implementation lives in client.go.
package contactsearch

import "context"

// Card is one entry on a search results page
type Card struct {
	Name              string
	Title             string
	DetailURL         string
	HasEmailIndicator bool
}

// Profile is the detail page of a single contact. Visiting it costs one
// unit of the service's daily quota.
type Profile struct {
	Email   string
	Title   string
	Company string
}

// Query describes one contact search
type Query struct {
	Company      string
	TitleFilter  string // empty = no title filter
	RequireEmail bool
}

// Session is a logged-in browsing session against the contact-search
// service.
type Session interface {
	// Search submits a query and returns the result cards.
	Search(ctx context.Context, q Query) ([]Card, error)

	// VisitProfile opens a contact detail page. The visit consumes one
	// quota credit whether or not an email can be extracted; callers
	// account for it.
	VisitProfile(ctx context.Context, detailURL string) (*Profile, error)

	// FetchQuota reads the authoritative remaining daily quota from the
	// service's account-usage page.
	FetchQuota(ctx context.Context) (int, error)
}
