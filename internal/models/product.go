package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog item sourced from a supplier feed or created by hand.
// Prices are stored in minor currency units (cents).
type Product struct {
	ID           string            `json:"id" gorm:"type:uuid;primary_key"`
	Title        string            `json:"title" gorm:"not null"`
	Description  *string           `json:"description"`
	Price        int64             `json:"price" gorm:"not null"`
	CostPrice    *int64            `json:"cost_price"`
	Currency     string            `json:"currency" gorm:"default:USD"`
	NicheID      *string           `json:"niche_id" gorm:"type:uuid;index"`
	Tags         []string          `json:"tags" gorm:"type:jsonb;serializer:json"`
	Images       []string          `json:"images" gorm:"type:jsonb;serializer:json"`
	SupplierLink *string           `json:"supplier_link"`
	Active       bool              `json:"active" gorm:"default:true;index"`
	Analytics    *ProductAnalytics `json:"analytics" gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ProductAnalytics holds engagement counters fed by the analytics worker.
type ProductAnalytics struct {
	Views       int64 `json:"views"`
	Imports     int64 `json:"imports"`
	Conversions int64 `json:"conversions"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// DescriptionText returns the description or "" when absent.
func (p *Product) DescriptionText() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}
