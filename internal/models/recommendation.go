package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecommendationMode selects how many winners a request returns.
type RecommendationMode string

const (
	ModeSingle RecommendationMode = "single"
	ModeTop3   RecommendationMode = "top3"
)

func (m RecommendationMode) Valid() bool {
	return m == ModeSingle || m == ModeTop3
}

// Limit returns the number of products the mode selects.
func (m RecommendationMode) Limit() int {
	if m == ModeTop3 {
		return 3
	}
	return 1
}

// RecommendationRequest is the typed request body for the winning-product
// endpoint. All fields are optional except Mode.
type RecommendationRequest struct {
	NicheID  *string            `json:"niche_id"`
	Goal     *Goal              `json:"goal"`
	MinPrice *int64             `json:"min_price"`
	MaxPrice *int64             `json:"max_price"`
	Mode     RecommendationMode `json:"mode" binding:"required"`
}

// RecommendedProduct is one scored winner in a recommendation response.
type RecommendedProduct struct {
	Product    Product        `json:"product"`
	Score      int            `json:"score"`
	Confidence float64        `json:"confidence"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	Rationale  string         `json:"rationale"`
}

// ScoreBreakdown mirrors scoring.Breakdown for the wire format.
type ScoreBreakdown struct {
	NicheRelevance       float64 `json:"niche_relevance"`
	BeginnerFriendliness float64 `json:"beginner_friendliness"`
	ProfitMargin         float64 `json:"profit_margin"`
	Quality              float64 `json:"quality"`
	Popularity           float64 `json:"popularity"`
}

// RecommendationResponse is the typed response envelope.
type RecommendationResponse struct {
	Mode       RecommendationMode   `json:"mode"`
	NicheID    string               `json:"niche_id"`
	CrossNiche bool                 `json:"cross_niche"`
	Results    []RecommendedProduct `json:"results"`
}

// JSONB is a custom type for PostgreSQL JSONB columns.
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, j)
}

// RecommendationHistory records every recommendation request for analytics
// and support. One row per request, not per winner.
type RecommendationHistory struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID     string    `json:"user_id" gorm:"type:uuid;not null;index"`
	NicheID    string    `json:"niche_id" gorm:"type:uuid;not null"`
	Mode       string    `json:"mode" gorm:"not null"`
	CrossNiche bool      `json:"cross_niche"`
	ProductIDs []string  `json:"product_ids" gorm:"type:jsonb;serializer:json"`
	Scores     []int     `json:"scores" gorm:"type:jsonb;serializer:json"`
	Metadata   JSONB     `json:"metadata" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *RecommendationHistory) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
