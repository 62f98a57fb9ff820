// Package store provides gorm-backed implementations of the repository
// interfaces consumed by the recommend service.
package store

import (
	"context"
	"fmt"

	"dropspot/internal/models"

	"gorm.io/gorm"
)

type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

// FindActiveByNiche returns active products in the niche, optionally bounded
// by price. Results are capped to keep scoring work predictable.
func (s *ProductStore) FindActiveByNiche(ctx context.Context, nicheID string, minPrice, maxPrice *int64) ([]models.Product, error) {
	query := s.db.WithContext(ctx).
		Where("active = ?", true).
		Where("niche_id = ?", nicheID)

	if minPrice != nil {
		query = query.Where("price >= ?", *minPrice)
	}
	if maxPrice != nil {
		query = query.Where("price <= ?", *maxPrice)
	}

	var products []models.Product
	if err := query.Limit(200).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products for niche %s: %w", nicheID, err)
	}
	return products, nil
}

// FindActiveAcrossNiches is the cross-niche fallback pool.
func (s *ProductStore) FindActiveAcrossNiches(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cross-niche products: %w", err)
	}
	return products, nil
}

type NicheStore struct {
	db *gorm.DB
}

func NewNicheStore(db *gorm.DB) *NicheStore {
	return &NicheStore{db: db}
}

func (s *NicheStore) FindByID(ctx context.Context, id string) (*models.Niche, error) {
	var niche models.Niche
	if err := s.db.WithContext(ctx).First(&niche, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &niche, nil
}

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type HistoryStore struct {
	db *gorm.DB
}

func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Create(ctx context.Context, h *models.RecommendationHistory) error {
	return s.db.WithContext(ctx).Create(h).Error
}
