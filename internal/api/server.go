package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dropspot/internal/ai"
	"dropspot/internal/api/handlers"
	"dropspot/internal/api/middleware"
	"dropspot/internal/cache"
	"dropspot/internal/config"
	"dropspot/internal/database"
	"dropspot/internal/logger"
	"dropspot/internal/metrics"
	"dropspot/internal/ratelimit"
	"dropspot/internal/recommend"
	"dropspot/internal/store"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, log *logger.Logger, db *database.Database, redis *cache.RedisClient) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	// Recommendation pipeline
	limiter := ratelimit.NewFixedWindow(
		redis.Client,
		cfg.RateLimitMax,
		time.Duration(cfg.RateLimitWindowSeconds)*time.Second,
	)
	rationale := ai.New(cfg, log)
	recommendSvc := recommend.NewService(
		store.NewProductStore(db.DB),
		store.NewNicheStore(db.DB),
		store.NewUserStore(db.DB),
		store.NewHistoryStore(db.DB),
		rationale,
		limiter,
		log,
		time.Duration(cfg.RationaleTimeoutSeconds)*time.Second,
	)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(db.DB, log, cfg)
	nicheHandler := handlers.NewNicheHandler(db.DB, log)
	userHandler := handlers.NewUserHandler(db.DB, log)
	recommendationHandler := handlers.NewRecommendationHandler(recommendSvc, db.DB, log)
	healthHandler := handlers.NewHealthHandler(db.DB, redis)

	// Operational endpoints
	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Products
		products := v1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.POST("", productHandler.Create)
			products.PUT("/:id", productHandler.Update)
			products.DELETE("/:id", productHandler.Delete)
			products.POST("/import", productHandler.Import)
		}

		// Niches
		niches := v1.Group("/niches")
		{
			niches.GET("", nicheHandler.List)
			niches.GET("/:id", nicheHandler.Get)
			niches.POST("", nicheHandler.Create)
			niches.PUT("/:id", nicheHandler.Update)
			niches.DELETE("/:id", nicheHandler.Delete)
		}

		// Users
		users := v1.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id/preferences", userHandler.UpdatePreferences)
		}

		// Recommendations
		recommendations := v1.Group("/recommendations")
		{
			recommendations.POST("", recommendationHandler.FindWinningProduct)
			recommendations.GET("/history", recommendationHandler.GetHistory)
		}
	}

	return &Server{
		config: cfg,
		logger: log,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// GetRouter returns the Gin router for serverless deployments.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
