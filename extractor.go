package prodscan

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/zombar/prodscan/language"
	"github.com/zombar/prodscan/models"
	"github.com/zombar/prodscan/ollama"
)

// Config contains extractor configuration
type Config struct {
	HTTPTimeout            time.Duration
	UserAgent              string
	LanguageAPIKey         string
	LanguageBaseURL        string // override for tests; empty means production
	OllamaBaseURL          string
	OllamaModel            string
	AnnotationExcerptLimit int // characters of readable text sent for annotation
}

// DefaultConfig returns default extractor configuration
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:            30 * time.Second,
		UserAgent:              "Mozilla/5.0 (compatible; ProdScanBot/1.0)",
		OllamaBaseURL:          ollama.DefaultBaseURL,
		OllamaModel:            ollama.DefaultModel,
		AnnotationExcerptLimit: 5000, // cost/latency bound on annotation calls
	}
}

// nameSalienceThreshold is the minimum salience for an entity to be
// accepted as the product name.
const nameSalienceThreshold = 0.1

// Extractor runs the product-page extraction pipeline: fetch, readability,
// entity/syntax annotation, classification, preference-aware ranking and
// report assembly. It holds no per-run state; one instance is safe for
// concurrent use.
type Extractor struct {
	config     Config
	httpClient *http.Client
	language   *language.Client
	ollama     *ollama.Client
	tracer     trace.Tracer
}

// New creates a new Extractor instance
func New(config Config) *Extractor {
	return &Extractor{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		language: language.NewClient(config.LanguageAPIKey, config.LanguageBaseURL),
		ollama:   ollama.NewClient(config.OllamaBaseURL, config.OllamaModel),
		tracer:   otel.Tracer("prodscan"),
	}
}

// ExtractTextFromURL runs the full pipeline and returns the formatted
// report. The report string is the sole artifact; callers needing the
// structured result should use Extract.
func (e *Extractor) ExtractTextFromURL(ctx context.Context, targetURL string, prefs *models.UserPreferences) (string, error) {
	result, err := e.Extract(ctx, targetURL, prefs)
	if err != nil {
		return "", err
	}
	return result.Report, nil
}

// Extract fetches and processes a product page URL. Every stage failure
// aborts the run; no partial result is ever returned.
func (e *Extractor) Extract(ctx context.Context, targetURL string, prefs *models.UserPreferences) (*models.Extraction, error) {
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "pipeline.extract")
	defer span.End()

	// Validate URL
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("URL must be http or https")
	}

	// Fetch the page
	rawHTML, err := e.fetchPage(ctx, targetURL)
	if err != nil {
		log.Printf("Fetch failed for %s: %v", targetURL, err)
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	// Isolate the main readable content
	title, readable, err := extractReadable(rawHTML, parsedURL)
	if err != nil {
		log.Printf("Readability failed for %s: %v", targetURL, err)
		return nil, fmt.Errorf("content extraction failed: %w", err)
	}

	// Page metadata provides the fallback description when no sentence
	// candidates survive filtering.
	metaDescription := extractMetaDescription(rawHTML)

	// Both annotation calls operate on the same bounded excerpt; text
	// beyond the limit is never analyzed.
	excerpt := truncate(readable, e.config.AnnotationExcerptLimit)

	// The two calls have no data dependency, so issue them in parallel
	// and join before classification.
	var (
		wg        sync.WaitGroup
		entities  []models.AnnotatedEntity
		sentences []models.AnnotatedSentence
		entErr    error
		synErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		entities, entErr = e.language.AnalyzeEntities(ctx, excerpt)
	}()
	go func() {
		defer wg.Done()
		sentences, synErr = e.language.AnalyzeSyntax(ctx, excerpt)
	}()
	wg.Wait()

	if entErr != nil {
		log.Printf("Entity analysis failed for %s: %v", targetURL, entErr)
		return nil, fmt.Errorf("entity analysis failed: %w", entErr)
	}
	if synErr != nil {
		log.Printf("Syntax analysis failed for %s: %v", targetURL, synErr)
		return nil, fmt.Errorf("syntax analysis failed: %w", synErr)
	}

	info := ClassifyEntities(entities, prefs)
	info.Description = metaDescription

	descriptions := SelectDescriptions(sentences, prefs)

	report := BuildReport(info, descriptions, readable, prefs)

	return &models.Extraction{
		ID:             uuid.New().String(),
		URL:            targetURL,
		Title:          title,
		Content:        readable,
		Report:         report,
		Product:        *info,
		Descriptions:   descriptions,
		FetchedAt:      start,
		CreatedAt:      time.Now(),
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

// fetchPage retrieves the raw HTML for a URL. Transport failures surface as
// *NetworkError, non-2xx responses as *FetchError. The full body is returned
// with no size cap or content-type check.
func (e *Extractor) fetchPage(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.config.UserAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Err: err}
	}

	return string(body), nil
}

// extractReadable isolates the main article text from raw HTML using the
// readability heuristic. Whitespace structure is preserved loosely.
func extractReadable(rawHTML string, pageURL *url.URL) (title, text string, err error) {
	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return "", "", &ExtractionError{Reason: err.Error()}
	}

	text = strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", "", &ExtractionError{Reason: "article body is empty"}
	}

	return article.Title, text, nil
}

// extractMetaDescription pulls the page description from meta tags.
// Priority: description > og:description, first non-empty wins.
func extractMetaDescription(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var metaDesc, ogDesc string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, property, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					name = strings.ToLower(attr.Val)
				case "property":
					property = strings.ToLower(attr.Val)
				case "content":
					content = attr.Val
				}
			}
			if content != "" {
				if name == "description" && metaDesc == "" {
					metaDesc = strings.TrimSpace(content)
				}
				if property == "og:description" && ogDesc == "" {
					ogDesc = strings.TrimSpace(content)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	if metaDesc != "" {
		return metaDesc
	}
	return ogDesc
}

// truncate returns the first limit characters of s. Rune-based so a
// multi-byte character is never split.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
