package jobfetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobpipe/jobpipe/internal/jobcache"
)

const jobPageHTML = `
<html>
<head><style>body { color: red; }</style></head>
<body>
<nav>Home | Jobs | About</nav>
<script>trackPageView();</script>
<h1>Backend Engineer</h1>


<p>Build reliable services in Go.</p>



<p>Remote friendly.</p>
<footer>Copyright</footer>
</body>
</html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(jobPageHTML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	text := ExtractText(doc)

	if !strings.Contains(text, "Backend Engineer") {
		t.Errorf("ExtractText() missing heading: %q", text)
	}
	if strings.Contains(text, "trackPageView") {
		t.Error("ExtractText() kept script content")
	}
	if strings.Contains(text, "color: red") {
		t.Error("ExtractText() kept style content")
	}
	if strings.Contains(text, "Home | Jobs") {
		t.Error("ExtractText() kept nav content")
	}
	if strings.Contains(text, "\n\n\n") {
		t.Error("ExtractText() did not collapse blank lines")
	}
}

func TestDescriptionUsesCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(jobPageHTML))
	}))
	defer srv.Close()

	cache, err := jobcache.Open(filepath.Join(t.TempDir(), "jobs.db"), time.Hour)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	f := NewFetcher(cache, discardLogger())
	ctx := context.Background()

	first, err := f.Description(ctx, srv.URL+"/posting/1")
	if err != nil {
		t.Fatalf("Description() error = %v", err)
	}
	second, err := f.Description(ctx, srv.URL+"/posting/1")
	if err != nil {
		t.Fatalf("Description() second call error = %v", err)
	}

	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (second call served from cache)", hits)
	}
	if first != second {
		t.Error("cached description differs from downloaded one")
	}
}

func TestDescriptionTruncates(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("x", 20000) + "</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(long))
	}))
	defer srv.Close()

	f := NewFetcher(nil, discardLogger())
	text, err := f.Description(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Description() error = %v", err)
	}
	if len(text) > defaultMaxTextLen {
		t.Errorf("Description() length = %d, want <= %d", len(text), defaultMaxTextLen)
	}
}

func TestDescriptionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(nil, discardLogger())
	if _, err := f.Description(context.Background(), srv.URL); err == nil {
		t.Error("Description() expected error for HTTP 404")
	}
}
