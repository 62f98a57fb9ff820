package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dropspot/internal/config"
	"dropspot/internal/logger"
	"dropspot/internal/models"
	"dropspot/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := New(&config.Config{OpenAIAPIKey: "test-key", OpenAIModel: "gpt-3.5-turbo"}, logger.NewNop())
	g.baseURL = srv.URL
	return g
}

func sampleScored() (*models.Product, scoring.Result) {
	p := &models.Product{ID: "p1", Title: "Magnetic Phone Mount", Price: 1499}
	return p, scoring.Result{
		Score:      78,
		Confidence: 0.85,
		Breakdown:  scoring.Breakdown{NicheRelevance: 1.0, BeginnerFriendliness: 0.9, ProfitMargin: 0.6, Quality: 0.7, Popularity: 0.4},
	}
}

func TestRationale_Success(t *testing.T) {
	var gotAuth string
	g := testGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "Magnetic Phone Mount")

		json.NewEncoder(w).Encode(openAIResponse{
			Choices: []choice{{Message: message{Role: "assistant", Content: "  A solid beginner pick.\n"}}},
		})
	})

	p, res := sampleScored()
	text, err := g.Rationale(context.Background(), p, res, "Car Accessories")
	require.NoError(t, err)
	assert.Equal(t, "A solid beginner pick.", text, "response is trimmed")
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestRationale_APIError(t *testing.T) {
	g := testGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
	})

	p, res := sampleScored()
	_, err := g.Rationale(context.Background(), p, res, "Car Accessories")
	assert.Error(t, err)
}

func TestRationale_EmptyChoices(t *testing.T) {
	g := testGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIResponse{})
	})

	p, res := sampleScored()
	_, err := g.Rationale(context.Background(), p, res, "Car Accessories")
	assert.ErrorContains(t, err, "no response")
}

func TestRationale_MissingAPIKey(t *testing.T) {
	g := New(&config.Config{}, logger.NewNop())
	p, res := sampleScored()
	_, err := g.Rationale(context.Background(), p, res, "Car Accessories")
	assert.ErrorContains(t, err, "not configured")
}

func TestFallbackRationale(t *testing.T) {
	p, res := sampleScored()
	text := FallbackRationale(p, res)
	assert.Contains(t, text, "Magnetic Phone Mount")
	assert.Contains(t, text, "78/100")
	assert.Contains(t, text, "fit for your niche", "niche relevance is the strongest factor")

	// Deterministic for identical inputs.
	assert.Equal(t, text, FallbackRationale(p, res))
}
