package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mkredacao/portal-client/internal/config"
	"github.com/mkredacao/portal-client/internal/handler"
	"github.com/mkredacao/portal-client/internal/middleware"
	"github.com/mkredacao/portal-client/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Proxy *handler.ProxyHandler
}

// SetupRouter configures the devproxy's Gin engine.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every proxy-origin response
	// includes metadata.
	router.Use(response.RequestIDMiddleware())

	rateLimiter := middleware.NewRateLimiter(120, time.Minute)
	router.Use(rateLimiter.Middleware())

	// Health check and session status, answered locally.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/proxy/session", handlers.Proxy.Status)

	// Everything else is forwarded to the portal backend.
	router.NoRoute(handlers.Proxy.Forward)

	return router
}
