package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Niche is a product vertical used to match recommendations to user interest.
// Synonyms drive the fuzzy tag matching in the scoring engine.
type Niche struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"unique;not null"`
	Synonyms  []string  `json:"synonyms" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Niche) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}
