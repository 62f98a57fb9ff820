package handlers

import (
	"errors"
	"net/http"

	"dropspot/internal/logger"
	"dropspot/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NicheHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewNicheHandler(db *gorm.DB, log *logger.Logger) *NicheHandler {
	return &NicheHandler{
		db:     db,
		logger: log,
	}
}

func (h *NicheHandler) List(c *gin.Context) {
	var niches []models.Niche
	if err := h.db.Order("name ASC").Find(&niches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch niches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": niches})
}

func (h *NicheHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var niche models.Niche
	if err := h.db.First(&niche, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Niche not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch niche"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": niche})
}

func (h *NicheHandler) Create(c *gin.Context) {
	var niche models.Niche
	if err := c.ShouldBindJSON(&niche); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if niche.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	if err := h.db.Create(&niche).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create niche"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": niche})
}

func (h *NicheHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var niche models.Niche
	if err := h.db.First(&niche, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Niche not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch niche"})
		return
	}

	if err := c.ShouldBindJSON(&niche); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Save(&niche).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update niche"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": niche})
}

func (h *NicheHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.db.Delete(&models.Niche{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete niche"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
