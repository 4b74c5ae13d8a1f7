package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"jobgenie/internal/models"
)

// ErrEmptyResponse is returned when the model produced no usable content.
var ErrEmptyResponse = errors.New("empty response from Gemini")

const (
	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

// ClientConfig holds Gemini client configuration.
type ClientConfig struct {
	APIKey               string
	Model                string
	Temperature          float32
	MaxRequestsPerMinute float32
}

// Document is the resume handed to the model. Text, when set, is sent instead of Data.
type Document struct {
	FileName string
	MIMEType string
	Data     []byte
	Text     string
}

type generateFunc func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)

// Client wraps the Gemini API client.
type Client struct {
	client   *genai.Client
	generate generateFunc
	limiter  *rate.Limiter
	delay    time.Duration
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"

	c := &Client{
		client:   client,
		generate: model.GenerateContent,
		delay:    retryDelay,
	}
	if cfg.MaxRequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerMinute/60), 1)
	}
	return c, nil
}

// Close closes the Gemini client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ExtractResume asks the model for the structured content of a resume.
func (c *Client) ExtractResume(ctx context.Context, doc *Document) (*models.ParsedResume, error) {
	start := time.Now()

	parts := []genai.Part{genai.Text(buildExtractPrompt(doc.FileName))}
	if doc.Text != "" {
		parts = append(parts, genai.Text("Resume content:\n"+doc.Text))
	} else {
		parts = append(parts, genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data})
	}

	var text string
	var err error
	_, _, _ = lo.AttemptWhileWithDelay(maxAttempts, c.delay, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			slog.Warn("Gemini returned a server error, retrying", "attempt", i+1, "error", err)
		}
		text, err = c.waitAndGenerate(ctx, parts)
		return err, isServerError(err)
	})
	if err != nil {
		return nil, err
	}

	var result models.ParsedResume
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		text = extractJSONFromMarkdown(text)
		if err := json.Unmarshal([]byte(text), &result); err != nil {
			return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
		}
	}
	normalize(&result)

	slog.Debug("Resume extraction completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"file_name", doc.FileName,
		"experiences", len(result.Experiences),
		"education", len(result.Education),
	)
	return &result, nil
}

func (c *Client) waitAndGenerate(ctx context.Context, parts []genai.Part) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	resp, err := c.generate(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return extractText(resp.Candidates[0].Content.Parts), nil
}

// normalize clamps the industry guess to a supported value.
func normalize(r *models.ParsedResume) {
	industry := models.Industry(strings.ToLower(strings.TrimSpace(r.Industry)))
	if !industry.Valid() {
		industry = ""
	}
	r.Industry = string(industry)
	if r.TotalExperience < 0 {
		r.TotalExperience = 0
	}
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"Error 500", "Error 502", "Error 503", "Error 504", "code = Internal", "code = Unavailable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// extractText extracts text from Gemini response parts.
func extractText(parts []genai.Part) string {
	var texts []string
	for _, part := range parts {
		if text, ok := part.(genai.Text); ok {
			texts = append(texts, string(text))
		}
	}
	return strings.Join(texts, "")
}

// extractJSONFromMarkdown extracts JSON from markdown code blocks.
func extractJSONFromMarkdown(text string) string {
	if start := strings.Index(text, "```json"); start != -1 {
		text = text[start+7:]
		if end := strings.Index(text, "```"); end != -1 {
			return strings.TrimSpace(text[:end])
		}
	}
	if start := strings.Index(text, "{"); start != -1 {
		if end := strings.LastIndex(text, "}"); end != -1 {
			return text[start : end+1]
		}
	}
	return text
}
