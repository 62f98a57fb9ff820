// Package recommend orchestrates winning-product recommendations: it resolves
// the caller's niche, scores candidate products, and decorates the winners
// with model-generated rationales.
package recommend

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"dropspot/internal/ai"
	"dropspot/internal/logger"
	"dropspot/internal/metrics"
	"dropspot/internal/models"
	"dropspot/internal/ratelimit"
	"dropspot/internal/scoring"
)

// Business-rule failures surfaced as 4xx by the API layer.
var (
	ErrNicheRequired = errors.New("a niche is required: pass one or complete onboarding")
	ErrNicheNotFound = errors.New("niche not found")
	ErrNoProducts    = errors.New("no products available")
	ErrRateLimited   = errors.New("too many recommendation requests")
)

// crossNicheLimit caps the fallback pool when the niche has no products.
const crossNicheLimit = 10

// ProductStore supplies candidate products.
type ProductStore interface {
	FindActiveByNiche(ctx context.Context, nicheID string, minPrice, maxPrice *int64) ([]models.Product, error)
	FindActiveAcrossNiches(ctx context.Context, limit int) ([]models.Product, error)
}

// NicheStore resolves niche records.
type NicheStore interface {
	FindByID(ctx context.Context, id string) (*models.Niche, error)
}

// UserStore resolves the caller's stored preferences.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// HistoryStore records recommendation requests.
type HistoryStore interface {
	Create(ctx context.Context, h *models.RecommendationHistory) error
}

// RationaleGenerator produces justification text for one scored winner.
type RationaleGenerator interface {
	Rationale(ctx context.Context, product *models.Product, result scoring.Result, nicheName string) (string, error)
}

type Service struct {
	products  ProductStore
	niches    NicheStore
	users     UserStore
	history   HistoryStore
	rationale RationaleGenerator
	limiter   ratelimit.Limiter
	logger    *logger.Logger

	rationaleTimeout time.Duration
}

func NewService(
	products ProductStore,
	niches NicheStore,
	users UserStore,
	history HistoryStore,
	rationale RationaleGenerator,
	limiter ratelimit.Limiter,
	log *logger.Logger,
	rationaleTimeout time.Duration,
) *Service {
	return &Service{
		products:         products,
		niches:           niches,
		users:            users,
		history:          history,
		rationale:        rationale,
		limiter:          limiter,
		logger:           log,
		rationaleTimeout: rationaleTimeout,
	}
}

// FindWinningProduct runs the full recommendation flow for one caller.
func (s *Service) FindWinningProduct(ctx context.Context, userID string, req models.RecommendationRequest) (*models.RecommendationResponse, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	if allowed, err := s.limiter.Allow(ctx, userID); err != nil {
		// Limiter outage should not take recommendations down with it.
		s.logger.Warn("rate limiter unavailable, allowing request: %v", err)
	} else if !allowed {
		return nil, ErrRateLimited
	}

	nicheID, goal, err := s.resolvePreferences(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	niche, err := s.niches.FindByID(ctx, nicheID)
	if err != nil {
		return nil, ErrNicheNotFound
	}

	candidates, err := s.products.FindActiveByNiche(ctx, nicheID, req.MinPrice, req.MaxPrice)
	if err != nil {
		return nil, err
	}

	crossNiche := false
	if len(candidates) == 0 {
		candidates, err = s.products.FindActiveAcrossNiches(ctx, crossNicheLimit)
		if err != nil {
			return nil, err
		}
		crossNiche = true
	}
	if len(candidates) == 0 {
		return nil, ErrNoProducts
	}

	prefs := scoring.Preferences{NicheID: &nicheID, Goal: goal}
	winners := s.scoreAndRank(candidates, prefs, niche, req.Mode.Limit())
	results := s.attachRationales(ctx, winners, niche.Name)

	s.recordHistory(ctx, userID, nicheID, req.Mode, crossNiche, results)

	return &models.RecommendationResponse{
		Mode:       req.Mode,
		NicheID:    nicheID,
		CrossNiche: crossNiche,
		Results:    results,
	}, nil
}

// resolvePreferences picks the effective niche and goal: explicit request
// values win, then the caller's stored onboarding preferences.
func (s *Service) resolvePreferences(ctx context.Context, userID string, req models.RecommendationRequest) (string, *models.Goal, error) {
	if req.NicheID != nil && *req.NicheID != "" {
		return *req.NicheID, req.Goal, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil || user.NicheID == nil || *user.NicheID == "" {
		return "", nil, ErrNicheRequired
	}

	goal := req.Goal
	if goal == nil {
		goal = user.Goal
	}
	return *user.NicheID, goal, nil
}

type scoredCandidate struct {
	product models.Product
	result  scoring.Result
}

// scoreAndRank scores every candidate and returns the top n. Ordering is
// deterministic: score descending, then product ID ascending on ties.
func (s *Service) scoreAndRank(candidates []models.Product, prefs scoring.Preferences, niche *models.Niche, n int) []scoredCandidate {
	scored := make([]scoredCandidate, 0, len(candidates))
	for i := range candidates {
		result := scoring.ScoreProduct(&candidates[i], prefs, niche)
		metrics.ProductsScored.Inc()
		scored = append(scored, scoredCandidate{product: candidates[i], result: result})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].result.Score != scored[j].result.Score {
			return scored[i].result.Score > scored[j].result.Score
		}
		return scored[i].product.ID < scored[j].product.ID
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// attachRationales fans out one rationale call per winner. Calls run
// concurrently, each under its own timeout, and are reassembled by index.
// A failed call degrades to the deterministic fallback text instead of
// failing the request.
func (s *Service) attachRationales(ctx context.Context, winners []scoredCandidate, nicheName string) []models.RecommendedProduct {
	results := make([]models.RecommendedProduct, len(winners))

	var wg sync.WaitGroup
	for i := range winners {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := winners[i]

			callCtx, cancel := context.WithTimeout(ctx, s.rationaleTimeout)
			defer cancel()

			text, err := s.rationale.Rationale(callCtx, &w.product, w.result, nicheName)
			if err != nil {
				s.logger.Warn("rationale generation failed for product %s: %v", w.product.ID, err)
				metrics.RationaleFallbacks.Inc()
				text = ai.FallbackRationale(&w.product, w.result)
			}

			results[i] = models.RecommendedProduct{
				Product:    w.product,
				Score:      w.result.Score,
				Confidence: w.result.Confidence,
				Breakdown: models.ScoreBreakdown{
					NicheRelevance:       w.result.Breakdown.NicheRelevance,
					BeginnerFriendliness: w.result.Breakdown.BeginnerFriendliness,
					ProfitMargin:         w.result.Breakdown.ProfitMargin,
					Quality:              w.result.Breakdown.Quality,
					Popularity:           w.result.Breakdown.Popularity,
				},
				Rationale: text,
			}
		}(i)
	}
	wg.Wait()

	return results
}

// recordHistory is best effort: a failed write is logged, never surfaced.
func (s *Service) recordHistory(ctx context.Context, userID, nicheID string, mode models.RecommendationMode, crossNiche bool, results []models.RecommendedProduct) {
	productIDs := make([]string, len(results))
	scores := make([]int, len(results))
	for i, r := range results {
		productIDs[i] = r.Product.ID
		scores[i] = r.Score
	}

	h := &models.RecommendationHistory{
		UserID:     userID,
		NicheID:    nicheID,
		Mode:       string(mode),
		CrossNiche: crossNiche,
		ProductIDs: productIDs,
		Scores:     scores,
	}
	if err := s.history.Create(ctx, h); err != nil {
		s.logger.Error("failed to record recommendation history: %v", err)
	}
}
