package language

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/zombar/prodscan/models"
)

// DefaultBaseURL is the production Natural Language API endpoint.
const DefaultBaseURL = "https://language.googleapis.com"

// Client calls the Natural Language annotation endpoints. The API key is
// passed as a query parameter on every request; it is never cached beyond
// the client's lifetime and never logged.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a new annotation client. An empty baseURL selects the
// production endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// The default NL API quota is 600 requests per minute; stay on the
	// safe side of it with headroom for concurrent pipelines.
	limiter := rate.NewLimiter(rate.Limit(8), 16)

	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		apiKey:  apiKey,
		baseURL: baseURL,
		limiter: limiter,
	}
}

// document is the wire representation of an analysis input.
type document struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// analyzeRequest is the shared request body for both analysis endpoints.
type analyzeRequest struct {
	Document     document `json:"document"`
	EncodingType string   `json:"encodingType"`
}

type textSpan struct {
	Content     string `json:"content"`
	BeginOffset int    `json:"beginOffset"`
}

type entityMention struct {
	Text textSpan `json:"text"`
	Type string   `json:"type"`
}

type entity struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Salience float64         `json:"salience"`
	Mentions []entityMention `json:"mentions"`
}

type entitiesResponse struct {
	Entities []entity `json:"entities"`
}

type sentence struct {
	Text textSpan `json:"text"`
}

type syntaxResponse struct {
	Sentences []sentence        `json:"sentences"`
	Tokens    []json.RawMessage `json:"tokens"` // present in responses, unused here
}

// AnalyzeEntities extracts named entities with salience scores from text.
func (c *Client) AnalyzeEntities(ctx context.Context, text string) ([]models.AnnotatedEntity, error) {
	var resp entitiesResponse
	if err := c.analyze(ctx, "analyzeEntities", text, &resp); err != nil {
		return nil, err
	}

	entities := make([]models.AnnotatedEntity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		mentions := make([]models.EntityMention, 0, len(e.Mentions))
		for _, m := range e.Mentions {
			mentions = append(mentions, models.EntityMention{
				Text: m.Text.Content,
				Type: m.Type,
			})
		}
		entities = append(entities, models.AnnotatedEntity{
			Name:     e.Name,
			Type:     e.Type,
			Salience: e.Salience,
			Mentions: mentions,
		})
	}

	return entities, nil
}

// AnalyzeSyntax segments text into sentences in document order.
func (c *Client) AnalyzeSyntax(ctx context.Context, text string) ([]models.AnnotatedSentence, error) {
	var resp syntaxResponse
	if err := c.analyze(ctx, "analyzeSyntax", text, &resp); err != nil {
		return nil, err
	}

	sentences := make([]models.AnnotatedSentence, 0, len(resp.Sentences))
	for _, s := range resp.Sentences {
		sentences = append(sentences, models.AnnotatedSentence{Text: s.Text.Content})
	}

	return sentences, nil
}

// analyze posts text to one of the documents:<endpoint> methods and decodes
// the response into out.
func (c *Client) analyze(ctx context.Context, endpoint, text string, out interface{}) error {
	// Fail before any network I/O when the credential is absent.
	if c.apiKey == "" {
		return &ConfigError{Missing: "language API key"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(analyzeRequest{
		Document: document{
			Type:    "PLAIN_TEXT",
			Content: text,
		},
		EncodingType: "UTF8",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/documents:%s?key=%s", c.baseURL, endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServiceError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	return nil
}
