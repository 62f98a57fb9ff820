package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"dropspot/internal/logger"
	"dropspot/internal/models"
	"dropspot/internal/recommend"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Recommender is the slice of the recommend service this handler needs.
type Recommender interface {
	FindWinningProduct(ctx context.Context, userID string, req models.RecommendationRequest) (*models.RecommendationResponse, error)
}

type RecommendationHandler struct {
	svc    Recommender
	db     *gorm.DB
	logger *logger.Logger
}

func NewRecommendationHandler(svc Recommender, db *gorm.DB, log *logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		svc:    svc,
		db:     db,
		logger: log,
	}
}

// FindWinningProduct runs the scoring pipeline for the caller.
// POST /api/v1/recommendations
func (h *RecommendationHandler) FindWinningProduct(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	if !req.Mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mode must be 'single' or 'top3'"})
		return
	}
	if req.Goal != nil && !req.Goal.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Goal must be one of dropship, brand, start_small"})
		return
	}

	resp, err := h.svc.FindWinningProduct(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrNicheRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, recommend.ErrNicheNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, recommend.ErrNoProducts):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, recommend.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Recommendation failed for user %s: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate recommendation"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetHistory lists the caller's past recommendation requests.
// GET /api/v1/recommendations/history
func (h *RecommendationHandler) GetHistory(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset := (page - 1) * limit

	query := h.db.Model(&models.RecommendationHistory{}).Where("user_id = ?", userID)

	var total int64
	query.Count(&total)

	var history []models.RecommendationHistory
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&history).Error; err != nil {
		h.logger.Error("Failed to fetch recommendation history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": history,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// callerID resolves the authenticated caller. Auth middleware sets user_id on
// the context; the X-User-ID header is the development fallback.
func callerID(c *gin.Context) string {
	if id := c.GetString("user_id"); id != "" {
		return id
	}
	return c.GetHeader("X-User-ID")
}
