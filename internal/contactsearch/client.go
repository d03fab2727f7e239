package contactsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Config holds contact-search client settings
type Config struct {
	BaseURL     string
	SessionFile string // JSON array of saved session cookies
	Timeout     time.Duration
}

// Client is an HTTP Session implementation. It reuses the cookies of a
// previously authenticated browser session; it never logs in itself.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type sessionCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// NewClient creates a client from a saved session file
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	data, err := os.ReadFile(cfg.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var cookies []sessionCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		httpCookies = append(httpCookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	jar.SetCookies(base, httpCookies)

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}, nil
}

// Search submits a contact search and parses the result cards
func (c *Client) Search(ctx context.Context, q Query) ([]Card, error) {
	params := url.Values{}
	params.Set("company", q.Company)
	if q.TitleFilter != "" {
		params.Set("title", q.TitleFilter)
	}
	if q.RequireEmail {
		params.Set("requireEmail", "true")
	}

	doc, err := c.fetchDocument(ctx, c.baseURL+"/App/Contacts/Search?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return parseCards(doc, c.baseURL), nil
}

// VisitProfile opens a contact detail page and extracts what it can
func (c *Client) VisitProfile(ctx context.Context, detailURL string) (*Profile, error) {
	doc, err := c.fetchDocument(ctx, detailURL)
	if err != nil {
		return nil, fmt.Errorf("profile visit failed: %w", err)
	}
	return parseProfile(doc), nil
}

// FetchQuota reads the account-usage page and returns the remaining
// daily credit count.
func (c *Client) FetchQuota(ctx context.Context) (int, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+"/App/Settings/AccountUsage")
	if err != nil {
		return 0, fmt.Errorf("quota fetch failed: %w", err)
	}

	remaining, ok := parseQuotaTable(doc)
	if !ok {
		return 0, fmt.Errorf("no usage table with a remaining column found")
	}
	return remaining, nil
}

func (c *Client) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	// A redirect to the login page means the saved session expired
	if strings.Contains(strings.ToLower(resp.Request.URL.Path), "login") {
		return nil, fmt.Errorf("session expired: redirected to login")
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// parseCards extracts contact cards from a search results document
func parseCards(doc *goquery.Document, baseURL string) []Card {
	cards := []Card{}
	doc.Find("li[data-type='contact']").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find("h3.title").First().Text())

		title := ""
		if h4s := sel.Find("h4"); h4s.Length() >= 2 {
			title = strings.TrimSpace(h4s.Eq(1).Text())
		}

		detailURL := ""
		if href, ok := sel.Find("a[href*='/App/Contacts/SearchDetails']").First().Attr("href"); ok {
			if strings.HasPrefix(href, "/") {
				detailURL = baseURL + href
			} else {
				detailURL = href
			}
		}

		hasEmail := sel.Find("span.fa-envelope-o").Length() > 0

		if name != "" && title != "" && detailURL != "" {
			cards = append(cards, Card{
				Name:              name,
				Title:             title,
				DetailURL:         detailURL,
				HasEmailIndicator: hasEmail,
			})
		}
	})
	return cards
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Hosts whose addresses show up in page chrome, not contact data
var ignoredEmailHosts = []string{"careershift", "springshare", "linkedin", "google", "hubspot", "sentry"}

// parseProfile extracts contact fields from a detail page
func parseProfile(doc *goquery.Document) *Profile {
	p := &Profile{}

	if href, ok := doc.Find("a[href^='mailto:']").First().Attr("href"); ok {
		p.Email = strings.TrimSpace(strings.TrimPrefix(href, "mailto:"))
	}

	if p.Email == "" {
		// Fall back to scanning the page text for a plausible address
		for _, match := range emailPattern.FindAllString(doc.Text(), -1) {
			if !isIgnoredEmail(match) {
				p.Email = match
				break
			}
		}
	}

	p.Title = strings.TrimSpace(doc.Find(".contact-title, h4.position").First().Text())
	p.Company = strings.TrimSpace(doc.Find(".contact-company, h4.company").First().Text())
	return p
}

func isIgnoredEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, host := range ignoredEmailHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

// parseQuotaTable finds the usage table with a "remaining" column and
// returns the value from its first data row.
func parseQuotaTable(doc *goquery.Document) (int, bool) {
	remaining := 0
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := []string{}
		table.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, strings.ToLower(strings.TrimSpace(th.Text())))
		})

		idx := -1
		for i, h := range headers {
			if h == "remaining" {
				idx = i
				break
			}
		}
		if idx == -1 {
			return true
		}

		table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			cols := tr.Find("td")
			if cols.Length() <= idx {
				return true
			}
			n, err := strconv.Atoi(strings.TrimSpace(cols.Eq(idx).Text()))
			if err != nil {
				return true
			}
			remaining = n
			found = true
			return false
		})
		return !found
	})

	return remaining, found
}
