package handlers

import (
	"errors"
	"net/http"

	"dropspot/internal/logger"
	"dropspot/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewUserHandler(db *gorm.DB, log *logger.Logger) *UserHandler {
	return &UserHandler{
		db:     db,
		logger: log,
	}
}

func (h *UserHandler) Create(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if user.Email == "" || user.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and name are required"})
		return
	}
	if user.Goal != nil && !user.Goal.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Goal must be one of dropship, brand, start_small"})
		return
	}

	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (h *UserHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

// UpdatePreferences sets the user's onboarding niche and goal.
// PUT /api/v1/users/:id/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	var req struct {
		NicheID *string      `json:"niche_id"`
		Goal    *models.Goal `json:"goal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Goal != nil && !req.Goal.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Goal must be one of dropship, brand, start_small"})
		return
	}

	if req.NicheID != nil {
		var niche models.Niche
		if err := h.db.First(&niche, "id = ?", *req.NicheID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown niche"})
			return
		}
		user.NicheID = req.NicheID
	}
	if req.Goal != nil {
		user.Goal = req.Goal
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}
