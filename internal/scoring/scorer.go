// Package scoring ranks catalog products for a seller's niche and goal.
// ScoreProduct is pure: identical inputs always produce identical output,
// inputs are never mutated, and missing data degrades to documented
// defaults instead of errors.
package scoring

import (
	"math"
	"strings"

	"dropspot/internal/models"
)

// Weights defines the relative importance of each scoring factor.
// They sum to 1.0 so the weighted sum stays on a 0-1 scale.
type Weights struct {
	NicheRelevance       float64
	BeginnerFriendliness float64
	ProfitMargin         float64
	Quality              float64
	Popularity           float64
}

// DefaultWeights returns the production scoring weights.
func DefaultWeights() Weights {
	return Weights{
		NicheRelevance:       0.40,
		BeginnerFriendliness: 0.20,
		ProfitMargin:         0.15,
		Quality:              0.15,
		Popularity:           0.10,
	}
}

// Price heuristics, in minor currency units.
const (
	beginnerBandFloor   = 10
	beginnerBandCeiling = 3000
	lowPriceThreshold   = 99

	// Flat score penalties applied after weighting, on the 0-100 scale.
	noImagePenalty         = 15
	thinDescriptionPenalty = 10

	// Assumed margin for products without a known cost price.
	estimatedMargin = 0.45
)

// Preferences captures what the caller cares about. Goal is accepted but
// does not yet influence the math.
type Preferences struct {
	NicheID *string
	Goal    *models.Goal
}

// Breakdown holds the five unweighted sub-scores, each 0-1.
type Breakdown struct {
	NicheRelevance       float64 `json:"niche_relevance"`
	BeginnerFriendliness float64 `json:"beginner_friendliness"`
	ProfitMargin         float64 `json:"profit_margin"`
	Quality              float64 `json:"quality"`
	Popularity           float64 `json:"popularity"`
}

// Result is the outcome of scoring a single product.
type Result struct {
	Score      int       `json:"score"`      // 0-100, rounded
	Confidence float64   `json:"confidence"` // 0-1, how much real data backed the score
	Breakdown  Breakdown `json:"breakdown"`
}

// ScoreProduct scores a product against the caller's preferences. The niche
// record is optional and only used for synonym matching against product tags.
func ScoreProduct(product *models.Product, prefs Preferences, niche *models.Niche) Result {
	w := DefaultWeights()

	b := Breakdown{
		NicheRelevance:       nicheRelevance(product, prefs, niche),
		BeginnerFriendliness: beginnerFriendliness(product),
		ProfitMargin:         profitMargin(product),
		Quality:              quality(product),
		Popularity:           popularity(product),
	}

	// Weights sum to 1 and sub-scores are 0-1, so the weighted sum is 0-1.
	// It is mapped to the 0-100 scale exactly once, before the flat penalties.
	weighted := b.NicheRelevance*w.NicheRelevance +
		b.BeginnerFriendliness*w.BeginnerFriendliness +
		b.ProfitMargin*w.ProfitMargin +
		b.Quality*w.Quality +
		b.Popularity*w.Popularity

	score := weighted * 100

	if len(product.Images) == 0 {
		score -= noImagePenalty
	}
	if len(product.DescriptionText()) < 10 {
		score -= thinDescriptionPenalty
	}

	return Result{
		Score:      int(math.Round(clamp(score, 0, 100))),
		Confidence: confidence(product),
		Breakdown:  b,
	}
}

// nicheRelevance is 1.0 on an exact niche match, 0.6 when any niche synonym
// overlaps a product tag, and a 0.1 low-confidence floor otherwise. The floor
// keeps unmatched products from being excluded outright.
func nicheRelevance(product *models.Product, prefs Preferences, niche *models.Niche) float64 {
	if prefs.NicheID == nil || product.NicheID == nil {
		return 0.1
	}
	if *product.NicheID == *prefs.NicheID {
		return 1.0
	}
	if niche != nil && tagsOverlap(niche.Synonyms, product.Tags) {
		return 0.6
	}
	return 0.1
}

// tagsOverlap reports whether any synonym and tag contain each other,
// case-insensitive, in either direction.
func tagsOverlap(synonyms, tags []string) bool {
	for _, syn := range synonyms {
		s := strings.ToLower(strings.TrimSpace(syn))
		if s == "" {
			continue
		}
		for _, tag := range tags {
			t := strings.ToLower(strings.TrimSpace(tag))
			if t == "" {
				continue
			}
			if strings.Contains(t, s) || strings.Contains(s, t) {
				return true
			}
		}
	}
	return false
}

// beginnerFriendliness favors products a first-time seller can realistically
// run: moderate price, short title, at least one image. Suspiciously cheap
// items are dampened even inside the beginner band.
func beginnerFriendliness(product *models.Product) float64 {
	score := 0.0

	price := product.Price
	switch {
	case price >= beginnerBandFloor && price <= beginnerBandCeiling:
		score += 0.6
	case price < beginnerBandFloor:
		score += 0.2
	default:
		score += 0.3
	}

	if len(product.Title) < 60 {
		score += 0.2
	}
	if len(product.Images) > 0 {
		score += 0.2
	}

	if price < lowPriceThreshold {
		score *= 0.7
	}

	return clamp(score, 0, 1)
}

// profitMargin uses the real margin when cost price is known and falls back
// to the platform's estimated margin for unlabelled dropship products.
func profitMargin(product *models.Product) float64 {
	if product.Price <= 0 {
		return 0
	}
	if product.CostPrice != nil && *product.CostPrice > 0 {
		margin := float64(product.Price-*product.CostPrice) / float64(product.Price)
		return clamp(margin, 0, 1)
	}
	return estimatedMargin
}

// quality rewards a substantial description and multiple images.
func quality(product *models.Product) float64 {
	score := 0.0

	descLen := len(product.DescriptionText())
	switch {
	case descLen >= 200 && descLen <= 1000:
		score += 0.5
	case descLen >= 100:
		score += 0.3
	case descLen >= 50:
		score += 0.1
	}

	switch {
	case len(product.Images) >= 2:
		score += 0.5
	case len(product.Images) == 1:
		score += 0.2
	}

	return clamp(score, 0, 1)
}

// popularity normalizes view and import counters, weighting imports higher
// since they signal stronger intent.
func popularity(product *models.Product) float64 {
	if product.Analytics == nil {
		return 0
	}
	views := clamp(float64(product.Analytics.Views)/1000, 0, 1)
	imports := clamp(float64(product.Analytics.Imports)/100, 0, 1)
	return 0.6*imports + 0.4*views
}

// confidence models how much real data backed the score, independent of the
// score's value. A product with no optional data still gets the 0.5 floor.
func confidence(product *models.Product) float64 {
	c := 0.5
	if product.CostPrice != nil {
		c += 0.2
	}
	if product.Analytics != nil && (product.Analytics.Views > 0 || product.Analytics.Imports > 0) {
		c += 0.15
	}
	if len(product.Tags) > 0 {
		c += 0.1
	}
	if product.SupplierLink != nil && *product.SupplierLink != "" {
		c += 0.05
	}
	return clamp(c, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
