package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dropspot/internal/logger"
	"dropspot/internal/models"
	"dropspot/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type fakeProducts struct {
	byNiche     map[string][]models.Product
	acrossAll   []models.Product
	nicheErr    error
	acrossErr   error
	acrossCalls int
}

func (f *fakeProducts) FindActiveByNiche(ctx context.Context, nicheID string, minPrice, maxPrice *int64) ([]models.Product, error) {
	if f.nicheErr != nil {
		return nil, f.nicheErr
	}
	products := f.byNiche[nicheID]
	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if minPrice != nil && p.Price < *minPrice {
			continue
		}
		if maxPrice != nil && p.Price > *maxPrice {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

func (f *fakeProducts) FindActiveAcrossNiches(ctx context.Context, limit int) ([]models.Product, error) {
	f.acrossCalls++
	if f.acrossErr != nil {
		return nil, f.acrossErr
	}
	if len(f.acrossAll) > limit {
		return f.acrossAll[:limit], nil
	}
	return f.acrossAll, nil
}

type fakeNiches struct {
	niches map[string]*models.Niche
}

func (f *fakeNiches) FindByID(ctx context.Context, id string) (*models.Niche, error) {
	n, ok := f.niches[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return n, nil
}

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return u, nil
}

type fakeHistory struct {
	records []*models.RecommendationHistory
	err     error
}

func (f *fakeHistory) Create(ctx context.Context, h *models.RecommendationHistory) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, h)
	return nil
}

type fakeRationale struct {
	failFor map[string]bool // product IDs whose calls fail
}

func (f *fakeRationale) Rationale(ctx context.Context, product *models.Product, result scoring.Result, nicheName string) (string, error) {
	if f.failFor[product.ID] {
		return "", errors.New("llm unavailable")
	}
	return fmt.Sprintf("generated rationale for %s", product.ID), nil
}

type fakeLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	f.calls++
	return f.allowed, f.err
}

// ==========================
// Helpers
// ==========================

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	testNicheID = "22222222-2222-2222-2222-222222222222"
)

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }

func product(id string, price int64, images int) models.Product {
	imgs := make([]string, images)
	for i := range imgs {
		imgs[i] = fmt.Sprintf("https://cdn.example.com/%s-%d.jpg", id, i)
	}
	desc := "A dependable product with a clear use case, simple shipping profile and steady demand from first-time store owners everywhere."
	nicheID := testNicheID
	return models.Product{
		ID:          id,
		Title:       "Product " + id,
		Description: &desc,
		Price:       price,
		CostPrice:   i64Ptr(price / 2),
		NicheID:     &nicheID,
		Images:      imgs,
	}
}

type fixture struct {
	products  *fakeProducts
	niches    *fakeNiches
	users     *fakeUsers
	history   *fakeHistory
	rationale *fakeRationale
	limiter   *fakeLimiter
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		products: &fakeProducts{byNiche: map[string][]models.Product{}},
		niches: &fakeNiches{niches: map[string]*models.Niche{
			testNicheID: {ID: testNicheID, Name: "Car Accessories", Synonyms: []string{"auto", "car"}},
		}},
		users:     &fakeUsers{users: map[string]*models.User{}},
		history:   &fakeHistory{},
		rationale: &fakeRationale{failFor: map[string]bool{}},
		limiter:   &fakeLimiter{allowed: true},
	}
	f.svc = NewService(f.products, f.niches, f.users, f.history, f.rationale, f.limiter, logger.NewNop(), time.Second)
	return f
}

func singleRequest(nicheID string) models.RecommendationRequest {
	return models.RecommendationRequest{NicheID: strPtr(nicheID), Mode: models.ModeSingle}
}

// ==========================
// Tests
// ==========================

func TestFindWinningProduct_Single(t *testing.T) {
	f := newFixture()
	f.products.byNiche[testNicheID] = []models.Product{
		product("aaa", 1500, 2),
		product("bbb", 1500, 0), // no images: lower score
	}

	resp, err := f.svc.FindWinningProduct(context.Background(), testUserID, singleRequest(testNicheID))
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "aaa", resp.Results[0].Product.ID)
	assert.False(t, resp.CrossNiche)
	assert.Equal(t, testNicheID, resp.NicheID)
	assert.Equal(t, "generated rationale for aaa", resp.Results[0].Rationale)
	assert.GreaterOrEqual(t, resp.Results[0].Score, 0)
	assert.LessOrEqual(t, resp.Results[0].Score, 100)
}

func TestFindWinningProduct_Top3SortedByScore(t *testing.T) {
	f := newFixture()
	f.products.byNiche[testNicheID] = []models.Product{
		product("low", 5, 0),     // below beginner band, no images
		product("high", 1500, 2), // well inside the band
		product("mid", 9000, 1),  // above the band
		product("alsohigh", 1500, 2),
	}

	req := models.RecommendationRequest{NicheID: strPtr(testNicheID), Mode: models.ModeTop3}
	resp, err := f.svc.FindWinningProduct(context.Background(), testUserID, req)
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
	// "alsohigh" and "high" tie: product ID ascending breaks the tie.
	assert.Equal(t, "alsohigh", resp.Results[0].Product.ID)
	assert.Equal(t, "high", resp.Results[1].Product.ID)
}

func TestFindWinningProduct_StoredNicheFallback(t *testing.T) {
	f := newFixture()
	nicheID := testNicheID
	f.users.users[testUserID] = &models.User{ID: testUserID, NicheID: &nicheID}
	f.products.byNiche[testNicheID] = []models.Product{product("aaa", 1500, 2)}

	resp, err := f.svc.FindWinningProduct(context.Background(), testUserID, models.RecommendationRequest{Mode: models.ModeSingle})
	require.NoError(t, err)
	assert.Equal(t, testNicheID, resp.NicheID)
}

func TestFindWinningProduct_NicheRequired(t *testing.T) {
	f := newFixture()

	// No request niche, no stored user.
	_, err := f.svc.FindWinningProduct(context.Background(), testUserID, models.RecommendationRequest{Mode: models.ModeSingle})
	assert.ErrorIs(t, err, ErrNicheRequired)

	// Stored user without an onboarding niche.
	f.users.users[testUserID] = &models.User{ID: testUserID}
	_, err = f.svc.FindWinningProduct(context.Background(), testUserID, models.RecommendationRequest{Mode: models.ModeSingle})
	assert.ErrorIs(t, err, ErrNicheRequired)
}

func TestFindWinningProduct_NicheNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FindWinningProduct(context.Background(), testUserID, singleRequest("33333333-3333-3333-3333-333333333333"))
	assert.ErrorIs(t, err, ErrNicheNotFound)
}

func TestFindWinningProduct_CrossNicheFallback(t *testing.T) {
	f := newFixture()
	f.products.acrossAll = []models.Product{product("xxx", 1200, 1)}

	resp, err := f.svc.FindWinningProduct(context.Background(), testUserID, singleRequest(testNicheID))
	require.NoError(t, err)

	assert.True(t, resp.CrossNiche)
	assert.Equal(t, 1, f.products.acrossCalls)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "xxx", resp.Results[0].Product.ID)
}

func TestFindWinningProduct_NoProducts(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FindWinningProduct(context.Background(), testUserID, singleRequest(testNicheID))
	assert.ErrorIs(t, err, ErrNoProducts)
}

func TestFindWinningProduct_PriceBounds(t *testing.T) {
	f := newFixture()
	f.products.byNiche[testNicheID] = []models.Product{
		product("cheap", 100, 2),
		product("target", 1500, 2),
		product("pricey", 50000, 2),
	}

	req := models.RecommendationRequest{
		NicheID:  strPtr(testNicheID),
		MinPrice: i64Ptr(500),
		MaxPrice: i64Ptr(10000),
		Mode:     models.ModeTop3,
	}
	resp, err := f.svc.FindWinningProduct(context.Background(), testUserID, req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "target", resp.Results[0].Product.ID)
}

func TestFindWinningProduct_RationaleFailureDegrades(t *testing.T) {
	f := newFixture()
	f.products.byNiche[testNicheID] = []models.Product{
		product("aaa", 1500, 2),
		product("bbb", 1400, 2),
		product("ccc", 1300, 2),
	}
	f.rationale.failFor["bbb"] = true

	req := models.RecommendationRequest{NicheID: strPtr(testNicheID), Mode: models.ModeTop3}
	resp, err := f.svc.FindWinningProduct(context.Background(), testUserID, req)
	require.NoError(t, err, "a single rationale failure must not abort the request")
	require.Len(t, resp.Results, 3)

	for _, r := range resp.Results {
		assert.NotEmpty(t, r.Rationale)
		if r.Product.ID == "bbb" {
			assert.NotContains(t, r.Rationale, "generated rationale", "failed item gets the fallback text")
		} else {
			assert.Contains(t, r.Rationale, "generated rationale for "+r.Product.ID)
		}
	}
}

func TestFindWinningProduct_RateLimited(t *testing.T) {
	f := newFixture()
	f.limiter.allowed = false
	f.products.byNiche[testNicheID] = []models.Product{product("aaa", 1500, 2)}

	_, err := f.svc.FindWinningProduct(context.Background(), testUserID, singleRequest(testNicheID))
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestFindWinningProduct_LimiterOutageFailsOpen(t *testing.T) {
	f := newFixture()
	f.limiter.err = errors.New("redis down")
	f.products.byNiche[testNicheID] = []models.Product{product("aaa", 1500, 2)}

	_, err := f.svc.FindWinningProduct(context.Background(), testUserID, singleRequest(testNicheID))
	assert.NoError(t, err)
}

func TestFindWinningProduct_RecordsHistory(t *testing.T) {
	f := newFixture()
	f.products.byNiche[testNicheID] = []models.Product{
		product("aaa", 1500, 2),
		product("bbb", 1400, 2),
	}

	req := models.RecommendationRequest{NicheID: strPtr(testNicheID), Mode: models.ModeTop3}
	_, err := f.svc.FindWinningProduct(context.Background(), testUserID, req)
	require.NoError(t, err)

	require.Len(t, f.history.records, 1)
	h := f.history.records[0]
	assert.Equal(t, testUserID, h.UserID)
	assert.Equal(t, testNicheID, h.NicheID)
	assert.Equal(t, "top3", h.Mode)
	assert.Len(t, h.ProductIDs, 2)
	assert.Len(t, h.Scores, 2)
}

func TestFindWinningProduct_HistoryFailureIgnored(t *testing.T) {
	f := newFixture()
	f.history.err = errors.New("db write failed")
	f.products.byNiche[testNicheID] = []models.Product{product("aaa", 1500, 2)}

	_, err := f.svc.FindWinningProduct(context.Background(), testUserID, singleRequest(testNicheID))
	assert.NoError(t, err)
}
