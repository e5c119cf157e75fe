package models

import (
	"strings"
	"time"
)

// UserPreferences describes how a user wants product reports weighted and
// formatted. It is treated as an immutable value for the duration of one
// extraction run.
type UserPreferences struct {
	Expertise          string   `json:"expertise"`           // e.g. "beginner", "intermediate", "advanced", "expert"
	ProductTypes       []string `json:"product_types"`       // category tags from onboarding, not used by the pipeline itself
	EvaluationCriteria []string `json:"evaluation_criteria"` // ordered free-text relevance terms, e.g. "battery life"
}

// Detailed reports whether the user should receive the longer report format.
// Only "expert" and "advanced" are distinguished; every other expertise value
// gets the compact format.
func (p *UserPreferences) Detailed() bool {
	if p == nil {
		return false
	}
	return p.Expertise == "expert" || p.Expertise == "advanced"
}

// EntityMention is a single occurrence of an entity in the analyzed text.
type EntityMention struct {
	Text string `json:"text"`
	Type string `json:"type"` // PROPER or COMMON
}

// AnnotatedEntity is an entity returned by the language annotation service.
type AnnotatedEntity struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`     // CONSUMER_GOOD, PRICE, OTHER, ...
	Salience float64         `json:"salience"` // relative importance within the document, 0.0-1.0
	Mentions []EntityMention `json:"mentions"`
}

// AnnotatedSentence is a sentence boundary returned by syntax analysis,
// in document order.
type AnnotatedSentence struct {
	Text string `json:"text"`
}

// Specification is one key/value pair discovered from colon-delimited
// entity text, e.g. "Battery life: 8 hours".
type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProductInfo is the structured product summary assembled from annotated
// entities. Name and price are set at most once (first qualifying entity
// wins); specifications use overwrite semantics per key but keep insertion
// order so reports stay byte-identical across runs.
type ProductInfo struct {
	Name           string          `json:"name"`
	Price          string          `json:"price"`
	Features       []string        `json:"features"`
	Specifications []Specification `json:"specifications"`
	Description    string          `json:"description"` // fallback only, from page metadata
}

// SetSpecification stores a key/value pair, overwriting the value of an
// existing key in place.
func (p *ProductInfo) SetSpecification(key, value string) {
	for i := range p.Specifications {
		if p.Specifications[i].Key == key {
			p.Specifications[i].Value = value
			return
		}
	}
	p.Specifications = append(p.Specifications, Specification{Key: key, Value: value})
}

// Extraction represents the complete output of one pipeline run.
type Extraction struct {
	ID             string      `json:"id"`
	URL            string      `json:"url"`
	Title          string      `json:"title"`
	Content        string      `json:"content"` // readable main-body text
	Report         string      `json:"report"`
	Product        ProductInfo `json:"product"`
	Descriptions   []string    `json:"descriptions"`
	FetchedAt      time.Time   `json:"fetched_at"`
	CreatedAt      time.Time   `json:"created_at"`
	ProcessingTime float64     `json:"processing_time_seconds"`
	Cached         bool        `json:"cached"`
	Slug           string      `json:"slug,omitempty"`
	ContentKey     string      `json:"content_key,omitempty"` // archive key for readable text
	ReportKey      string      `json:"report_key,omitempty"`  // archive key for the report
	Warnings       []string    `json:"warnings,omitempty"`    // non-fatal processing issues
}

// CriterionRating is a user's scored evaluation of one criterion, consumed
// by the summary generator.
type CriterionRating struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"` // 0-10
	Notes  string `json:"notes,omitempty"`
}

// User is a stored identity record with onboarding state and preferences.
type User struct {
	ID                  string          `json:"id"`
	Preferences         UserPreferences `json:"preferences"`
	OnboardingCompleted bool            `json:"onboarding_completed"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// OllamaRequest represents a request to the Ollama API
type OllamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

// OllamaResponse represents a response from the Ollama API
type OllamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// NormalizeCriteria trims whitespace from criteria terms and drops empties,
// preserving order. Stored preferences can accumulate stray blanks from the
// onboarding wizard.
func NormalizeCriteria(criteria []string) []string {
	out := make([]string, 0, len(criteria))
	for _, c := range criteria {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
