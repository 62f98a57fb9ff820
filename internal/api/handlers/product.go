package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"dropspot/internal/config"
	"dropspot/internal/logger"
	"dropspot/internal/models"
	"dropspot/internal/services/supplier"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProductHandler struct {
	db       *gorm.DB
	logger   *logger.Logger
	supplier *supplier.Client
}

func NewProductHandler(db *gorm.DB, log *logger.Logger, cfg *config.Config) *ProductHandler {
	h := &ProductHandler{
		db:     db,
		logger: log,
	}
	if cfg.SupplierAPIBase != "" {
		h.supplier = supplier.NewClient(cfg.SupplierAPIBase, cfg.SupplierAPIKey, log)
	}
	return h
}

func (h *ProductHandler) List(c *gin.Context) {
	var products []models.Product

	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset := (page - 1) * limit

	// Filters
	nicheID := c.Query("niche_id")
	search := c.Query("search")
	active := c.Query("active")

	query := h.db.Model(&models.Product{})

	if nicheID != "" {
		query = query.Where("niche_id = ?", nicheID)
	}
	if active != "" {
		query = query.Where("active = ?", active == "true")
	}
	if search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if v, err := strconv.ParseInt(minPrice, 10, 64); err == nil {
			query = query.Where("price >= ?", v)
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if v, err := strconv.ParseInt(maxPrice, 10, 64); err == nil {
			query = query.Where("price <= ?", v)
		}
	}

	var total int64
	query.Count(&total)

	if err := query.Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (h *ProductHandler) Create(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if product.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	if product.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		return
	}

	if err := h.db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": product})
}

func (h *ProductHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if product.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		return
	}

	if err := h.db.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.db.Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// Import pulls a page of the supplier catalog into the local product table.
// POST /api/v1/products/import
func (h *ProductHandler) Import(c *gin.Context) {
	if h.supplier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Supplier API not configured"})
		return
	}

	var req struct {
		NicheID string `json:"niche_id" binding:"required"`
		Limit   int    `json:"limit"`
		Page    int    `json:"page"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	if req.Limit <= 0 || req.Limit > 250 {
		req.Limit = 50
	}

	catalog, err := h.supplier.GetCatalog(c.Request.Context(), req.Limit, req.Page)
	if err != nil {
		h.logger.Error("Supplier catalog fetch failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch supplier catalog"})
		return
	}

	imported := 0
	for _, cp := range catalog.Products {
		product := supplier.Transform(cp)
		if product.Title == "" || product.Price <= 0 {
			continue
		}
		nicheID := req.NicheID
		product.NicheID = &nicheID

		if err := h.db.Create(&product).Error; err != nil {
			h.logger.Error("Failed to import product %q: %v", product.Title, err)
			continue
		}
		imported++
	}

	c.JSON(http.StatusOK, gin.H{
		"fetched":  len(catalog.Products),
		"imported": imported,
		"message":  "Supplier catalog import completed",
	})
}
