package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"roomboard-gateway/config"
	"roomboard-gateway/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, handler *Handler) *gin.Engine {
	r := gin.Default()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	// The dashboard sends the session cookie on every call, so credentialed
	// CORS is required and a wildcard origin is not usable.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		boardGroup := api.Group("/board")
		{
			boardGroup.GET("", handler.GetBoard)
			boardGroup.PUT("/filters", handler.SetFilters)
			boardGroup.POST("/refresh", handler.RefreshBoard)
			boardGroup.POST("/select", handler.SelectSlot)
			boardGroup.POST("/cancel", handler.CancelBooking)
			boardGroup.POST("/confirm", handler.ConfirmBooking)
			boardGroup.POST("/bookings/refresh", handler.RefreshBookings)
		}

		// Static directory data is the only cached route; availability and
		// bookings always hit the upstream.
		api.GET("/rooms", caching, handler.GetRooms)

		api.GET("/watches", handler.GetWatch)
		api.PUT("/watches", handler.PutWatch)
		api.DELETE("/watches", handler.DeleteWatch)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
