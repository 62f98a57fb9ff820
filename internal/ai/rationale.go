// Package ai generates human-readable rationales for scored product
// recommendations using the OpenAI chat completions API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dropspot/internal/config"
	"dropspot/internal/logger"
	"dropspot/internal/models"
	"dropspot/internal/scoring"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultBaseURL = "https://api.openai.com/v1/chat/completions"

// Generator produces rationale text for a scored product.
type Generator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// OpenAI API structures
type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message message `json:"message"`
}

func New(cfg *config.Config, log *logger.Logger) *Generator {
	return &Generator{
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.OpenAIModel,
		baseURL:    defaultBaseURL,
		httpClient: newRetryClient().StandardClient(),
		logger:     log,
	}
}

// newRetryClient creates an HTTP client with retry capabilities.
func newRetryClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.Logger = nil
	return c
}

// Rationale asks the model to justify why the product is a good pick for the
// given niche. Callers should fall back to FallbackRationale on error.
func (g *Generator) Rationale(ctx context.Context, product *models.Product, result scoring.Result, nicheName string) (string, error) {
	prompt := fmt.Sprintf(`
You are an expert dropshipping coach. Explain in 2-3 sentences why this product is a promising pick for a seller in the "%s" niche.

Product: %s
Price: %d (minor currency units)
Score: %d/100 (niche relevance %.2f, beginner friendliness %.2f, profit margin %.2f, quality %.2f, popularity %.2f)

Requirements:
- Speak directly to a first-time seller
- Reference the strongest scoring factors
- No hype words, no emojis

Return ONLY the explanation, no preamble.
`, nicheName, product.Title, product.Price, result.Score,
		result.Breakdown.NicheRelevance, result.Breakdown.BeginnerFriendliness,
		result.Breakdown.ProfitMargin, result.Breakdown.Quality, result.Breakdown.Popularity)

	text, err := g.callOpenAI(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// callOpenAI makes an API call to OpenAI.
func (g *Generator) callOpenAI(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	request := openAIRequest{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   300,
		Messages: []message{
			{
				Role:    "system",
				Content: "You are an expert dropshipping coach and product analyst.",
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API error: %s", string(body))
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return openAIResp.Choices[0].Message.Content, nil
}

// FallbackRationale builds a deterministic rationale from the score breakdown
// when the model call fails. The request must not fail with it.
func FallbackRationale(product *models.Product, result scoring.Result) string {
	b := result.Breakdown
	strongest := "its overall balance of factors"
	best := 0.0
	for _, f := range []struct {
		value float64
		label string
	}{
		{b.NicheRelevance, "a strong fit for your niche"},
		{b.BeginnerFriendliness, "an easy price point for a first store"},
		{b.ProfitMargin, "a healthy profit margin"},
		{b.Quality, "a well-presented listing"},
		{b.Popularity, "proven demand from other sellers"},
	} {
		if f.value > best {
			best = f.value
			strongest = f.label
		}
	}

	return fmt.Sprintf("%s scored %d/100 based on %s. Review the breakdown for details.",
		product.Title, result.Score, strongest)
}
