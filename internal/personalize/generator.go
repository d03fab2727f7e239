// Package personalize generates per-application email copy with an
// LLM, caching results so one application never costs more than one
// model call per cache window.
package personalize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/jobpipe/jobpipe/internal/metrics"
	"github.com/jobpipe/jobpipe/internal/models"
)

const maxJobTextLen = 4000

// TextGenerator produces a completion for a prompt using a named model
type TextGenerator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// ContentCache persists generated email copy
type ContentCache interface {
	Get(cacheKey string) (*models.EmailContent, error)
	Save(cacheKey, company, jobTitle string, content *models.EmailContent, ttl time.Duration) error
}

// UsageTracker enforces per-model daily call budgets
type UsageTracker interface {
	CanCall(model string) (bool, error)
	Increment(model string) error
}

// Generator produces email content for an application, trying each
// configured model in order until one succeeds within budget.
type Generator struct {
	client   TextGenerator
	cache    ContentCache
	usage    UsageTracker
	models   []string
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewGenerator creates a generator. Models are tried in the order given.
func NewGenerator(client TextGenerator, cache ContentCache, usage UsageTracker, modelNames []string, cacheTTL time.Duration, logger *slog.Logger) *Generator {
	return &Generator{
		client:   client,
		cache:    cache,
		usage:    usage,
		models:   modelNames,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Content returns email copy for an application. A cached result is
// returned when present; otherwise the model chain is consulted. A nil
// result with nil error means every model is over budget or failed, and
// the caller should fall back to static templates.
func (g *Generator) Content(ctx context.Context, company, jobTitle, jobText string) (*models.EmailContent, error) {
	if jobText == "" {
		return nil, nil
	}

	key := CacheKey(company, jobTitle, jobText)

	cached, err := g.cache.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read content cache: %w", err)
	}
	if cached != nil {
		g.logger.Debug("email content from cache", "company", company)
		return cached, nil
	}

	prompt := buildPrompt(company, jobTitle, jobText)

	for _, model := range g.models {
		ok, err := g.usage.CanCall(model)
		if err != nil {
			return nil, fmt.Errorf("failed to check model budget: %w", err)
		}
		if !ok {
			g.logger.Debug("model over daily budget", "model", model)
			continue
		}

		raw, err := g.client.GenerateText(ctx, model, prompt)

		// The call counts against the budget even when it fails
		if ierr := g.usage.Increment(model); ierr != nil {
			return nil, fmt.Errorf("failed to record model usage: %w", ierr)
		}

		if err != nil {
			g.logger.Warn("model call failed", "model", model, "error", err)
			metrics.IncGenerations(model, "error")
			continue
		}

		content, err := parseContent(raw)
		if err != nil {
			g.logger.Warn("unparseable model response", "model", model, "error", err)
			metrics.IncGenerations(model, "error")
			continue
		}
		metrics.IncGenerations(model, "ok")

		if err := g.cache.Save(key, company, jobTitle, content, g.cacheTTL); err != nil {
			g.logger.Warn("failed to cache email content", "company", company, "error", err)
		}

		g.logger.Info("generated email content", "company", company, "model", model)
		return content, nil
	}

	g.logger.Warn("no model produced content", "company", company)
	return nil, nil
}

// CacheKey derives the cache key for one application's content
func CacheKey(company, jobTitle, jobText string) string {
	sum := sha256.Sum256([]byte(company + "-" + jobTitle + "-" + jobText))
	return hex.EncodeToString(sum[:])
}

func buildPrompt(company, jobTitle, jobText string) string {
	if len(jobText) > maxJobTextLen {
		jobText = jobText[:maxJobTextLen]
	}

	return fmt.Sprintf(`You are helping a software engineer write short outreach emails based on a job description.
Generate subject lines for the initial email and two followups, and a body fragment for each.

Company: %s
Job Title: %s

Job Description:
%s

Candidate Background:
- Backend Software Engineer
- Go & Python
- Microservices
- Kubernetes
- PostgreSQL optimization
- CI/CD pipelines
- Distributed systems

Return STRICT JSON in this format:

{
  "subject_initial": "...",
  "subject_followup1": "...",
  "subject_followup2": "...",
  "intro": "...",
  "followup1": "...",
  "followup2": "..."
}

Rules:
- Professional tone
- No emojis
- Each body under 120 words
- Subject lines under 10 words
- Return ONLY valid JSON
- Do not include a greeting in subjects
- Bodies are 3 concise sentences explaining why the candidate is a strong fit`,
		company, jobTitle, jobText)
}

var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// parseContent extracts the JSON payload from a model response, which
// may wrap it in prose or markdown fences.
func parseContent(raw string) (*models.EmailContent, error) {
	match := jsonBlock.FindString(raw)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var c models.EmailContent
	if err := json.Unmarshal([]byte(match), &c); err != nil {
		return nil, fmt.Errorf("failed to decode response JSON: %w", err)
	}

	if strings.TrimSpace(c.SubjectInitial) == "" || strings.TrimSpace(c.Intro) == "" {
		return nil, fmt.Errorf("response JSON missing required fields")
	}
	return &c, nil
}
