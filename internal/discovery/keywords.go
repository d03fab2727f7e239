package discovery

import (
	"strings"

	"github.com/jobpipe/jobpipe/internal/models"
)

// Search terms tried in order during the title-filtered passes
var hrSearchTerms = []string{"Recruiter", "Talent Acquisition", "Human Resources", "People Operations", "HR"}

// Titles matching these are confident recruiting contacts
var hrKeywordsStrong = []string{
	"recruiter", "recruiting", "recruitment",
	"talent acquisition", "talent partner",
	"human resources", "hr manager", "hr director",
	"hr business partner", "hrbp", "hr generalist",
	"people operations", "people partner",
	"staffing", "head of people",
	"vp of people", "vp hr", "director of hr",
	"hr specialist", "hr coordinator",
}

// Titles matching these might be recruiting-adjacent; flag for review
var hrKeywordsLoose = []string{
	"people", "hiring", "workforce", "culture",
	"talent", "onboarding", " hr", "human capital",
}

// Senior/executive titles unlikely to read cold applicant email.
// Acronyms are space-padded so "coo" cannot match inside "Coordinator";
// IsExcludedTitle pads and normalizes the title to make that hold.
var excludeKeywords = []string{
	"chief executive", " ceo ", "chief technology", " cto ",
	"chief operating", " coo ", "chief financial", " cfo ",
	"chief marketing", " cmo ", "chief information", " cio ",
	"chief people", "chief hr", "chief human resources",
	"founder", "co-founder", "president",
	"board member", "board of director",
	"managing partner", "general partner",
	"executive vice president", " evp ",
	"senior vice president", " svp ",
	"vice president", " vp ",
}

// ClassifyTitle maps a job title onto a match confidence. The second
// return value is false when the title is not a candidate at all.
func ClassifyTitle(title string) (models.Confidence, bool) {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, kw := range hrKeywordsStrong {
		if strings.Contains(t, kw) {
			return models.ConfidenceAuto, true
		}
	}
	for _, kw := range hrKeywordsLoose {
		if strings.Contains(t, kw) {
			return models.ConfidenceManualReview, true
		}
	}
	return "", false
}

// IsExcludedTitle reports whether a title is senior/executive.
// Punctuation becomes a word break so "VP, Engineering" matches " vp ".
func IsExcludedTitle(title string) bool {
	t := " " + excludeNormalizer.Replace(strings.ToLower(strings.TrimSpace(title))) + " "
	for _, kw := range excludeKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

var excludeNormalizer = strings.NewReplacer(",", " ", ".", " ", "/", " ", "(", " ", ")", " ")
