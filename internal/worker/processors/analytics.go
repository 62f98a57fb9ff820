package processors

import (
	"context"
	"fmt"
	"time"

	"dropspot/internal/logger"
	"dropspot/internal/models"

	"gorm.io/gorm"
)

// Event is a product engagement event published by the storefronts.
type Event struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventProductViewed    = "product.viewed"
	EventProductImported  = "product.imported"
	EventProductConverted = "product.converted"
)

// AnalyticsProcessor increments product analytics counters.
type AnalyticsProcessor struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewAnalyticsProcessor(db *gorm.DB, log *logger.Logger) *AnalyticsProcessor {
	return &AnalyticsProcessor{
		db:     db,
		logger: log,
	}
}

// Process applies one event. Events with an unknown type are skipped, not
// failed, so a topic shared with newer producers keeps draining.
func (p *AnalyticsProcessor) Process(ctx context.Context, event Event) error {
	count := event.Count
	if count <= 0 {
		count = 1
	}

	switch event.Type {
	case EventProductViewed, EventProductImported, EventProductConverted:
	default:
		p.logger.Debug("Skipping unknown event type: %s", event.Type)
		return nil
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", event.ProductID).Error; err != nil {
			return fmt.Errorf("product %s not found: %w", event.ProductID, err)
		}

		if product.Analytics == nil {
			product.Analytics = &models.ProductAnalytics{}
		}

		switch event.Type {
		case EventProductViewed:
			product.Analytics.Views += count
		case EventProductImported:
			product.Analytics.Imports += count
		case EventProductConverted:
			product.Analytics.Conversions += count
		}

		return tx.Model(&product).Update("analytics", product.Analytics).Error
	})
}
