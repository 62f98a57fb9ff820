package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"

	"dropspot/internal/ai"
	"dropspot/internal/models"
	"dropspot/internal/scoring"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
)

var (
	db      *sql.DB
	dbMutex sync.Mutex
)

// initDB initializes the database connection
func initDB() error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if db != nil {
		return nil // Already initialized
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	var err error
	db, err = sql.Open("postgres", databaseURL)
	if err != nil {
		return err
	}

	// Test the connection
	if err = db.Ping(); err != nil {
		return err
	}

	return nil
}

// scanProduct reads one product row. JSON columns are stored as text.
func scanProduct(rows *sql.Rows) (models.Product, error) {
	var p models.Product
	var tags, images, analytics sql.NullString

	err := rows.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.CostPrice,
		&p.Currency, &p.NicheID, &tags, &images, &p.SupplierLink,
		&p.Active, &analytics, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}

	if tags.Valid && tags.String != "" {
		json.Unmarshal([]byte(tags.String), &p.Tags)
	}
	if images.Valid && images.String != "" {
		json.Unmarshal([]byte(images.String), &p.Images)
	}
	if analytics.Valid && analytics.String != "" {
		var a models.ProductAnalytics
		if json.Unmarshal([]byte(analytics.String), &a) == nil {
			p.Analytics = &a
		}
	}

	return p, nil
}

const productColumns = `id, title, description, price, cost_price, currency,
	niche_id, tags, images, supplier_link, active, analytics, created_at, updated_at`

func queryProducts(query string, args ...interface{}) ([]models.Product, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func queryNiche(id string) (*models.Niche, error) {
	var n models.Niche
	var synonyms sql.NullString

	row := db.QueryRow(`SELECT id, name, synonyms, created_at, updated_at FROM niches WHERE id = $1`, id)
	if err := row.Scan(&n.ID, &n.Name, &synonyms, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if synonyms.Valid && synonyms.String != "" {
		json.Unmarshal([]byte(synonyms.String), &n.Synonyms)
	}
	return &n, nil
}

// Handler is the Vercel entrypoint. It serves a read-only slice of the API:
// catalog browsing plus score-only recommendations. Rationale generation and
// rate limiting need long-lived connections and stay on the full server.
func Handler(w http.ResponseWriter, r *http.Request) {
	// Initialize database connection
	if err := initDB(); err != nil {
		http.Error(w, fmt.Sprintf("Database initialization failed: %v", err), http.StatusInternalServerError)
		return
	}

	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Dropspot API is running",
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", func(c *gin.Context) {
			query := `SELECT ` + productColumns + ` FROM products WHERE active = true`
			args := []interface{}{}

			if nicheID := c.Query("niche_id"); nicheID != "" {
				query += ` AND niche_id = $1`
				args = append(args, nicheID)
			}
			query += ` ORDER BY created_at DESC LIMIT 50`

			products, err := queryProducts(query, args...)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
		})

		v1.GET("/niches", func(c *gin.Context) {
			rows, err := db.Query(`SELECT id, name, synonyms, created_at, updated_at FROM niches ORDER BY name`)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch niches"})
				return
			}
			defer rows.Close()

			var niches []models.Niche
			for rows.Next() {
				var n models.Niche
				var synonyms sql.NullString
				if err := rows.Scan(&n.ID, &n.Name, &synonyms, &n.CreatedAt, &n.UpdatedAt); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch niches"})
					return
				}
				if synonyms.Valid && synonyms.String != "" {
					json.Unmarshal([]byte(synonyms.String), &n.Synonyms)
				}
				niches = append(niches, n)
			}
			c.JSON(http.StatusOK, gin.H{"niches": niches, "count": len(niches)})
		})

		// Score-only recommendations: same engine as the full server, but
		// rationales come from the deterministic fallback.
		v1.POST("/recommendations", func(c *gin.Context) {
			var req models.RecommendationRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
				return
			}
			if !req.Mode.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'single' or 'top3'"})
				return
			}
			if req.NicheID == nil || *req.NicheID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "niche_id is required"})
				return
			}

			niche, err := queryNiche(*req.NicheID)
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Niche not found"})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch niche"})
				return
			}

			products, err := queryProducts(
				`SELECT `+productColumns+` FROM products WHERE active = true AND niche_id = $1 LIMIT 200`,
				niche.ID,
			)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
				return
			}

			crossNiche := false
			if len(products) == 0 {
				crossNiche = true
				products, err = queryProducts(
					`SELECT ` + productColumns + ` FROM products WHERE active = true ORDER BY created_at DESC LIMIT 10`,
				)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
					return
				}
			}
			if len(products) == 0 {
				c.JSON(http.StatusNotFound, gin.H{"error": "No products available"})
				return
			}

			prefs := scoring.Preferences{NicheID: &niche.ID, Goal: req.Goal}
			results := make([]models.RecommendedProduct, 0, len(products))
			for i := range products {
				res := scoring.ScoreProduct(&products[i], prefs, niche)
				results = append(results, models.RecommendedProduct{
					Product:    products[i],
					Score:      res.Score,
					Confidence: res.Confidence,
					Breakdown: models.ScoreBreakdown{
						NicheRelevance:       res.Breakdown.NicheRelevance,
						BeginnerFriendliness: res.Breakdown.BeginnerFriendliness,
						ProfitMargin:         res.Breakdown.ProfitMargin,
						Quality:              res.Breakdown.Quality,
						Popularity:           res.Breakdown.Popularity,
					},
				})
			}

			// Highest score first, product ID breaks ties.
			sort.Slice(results, func(i, j int) bool {
				if results[i].Score != results[j].Score {
					return results[i].Score > results[j].Score
				}
				return results[i].Product.ID < results[j].Product.ID
			})

			limit := req.Mode.Limit()
			if limit > len(results) {
				limit = len(results)
			}
			results = results[:limit]

			for i := range results {
				scoreRes := scoring.Result{
					Score:      results[i].Score,
					Confidence: results[i].Confidence,
					Breakdown: scoring.Breakdown{
						NicheRelevance:       results[i].Breakdown.NicheRelevance,
						BeginnerFriendliness: results[i].Breakdown.BeginnerFriendliness,
						ProfitMargin:         results[i].Breakdown.ProfitMargin,
						Quality:              results[i].Breakdown.Quality,
						Popularity:           results[i].Breakdown.Popularity,
					},
				}
				results[i].Rationale = ai.FallbackRationale(&results[i].Product, scoreRes)
			}

			c.JSON(http.StatusOK, models.RecommendationResponse{
				Mode:       req.Mode,
				NicheID:    niche.ID,
				CrossNiche: crossNiche,
				Results:    results,
			})
		})
	}

	router.ServeHTTP(w, r)
}
