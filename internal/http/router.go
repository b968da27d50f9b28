package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(handler *Handler, healthCheck func(context.Context) error, authMiddleware, deviceAuthMiddleware gin.HandlerFunc, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		if err := healthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// device-facing ingress: shared API key from the vendor gateway
	ingest := router.Group("/api/v1/ingest")
	ingest.Use(deviceAuthMiddleware)
	{
		ingest.POST("/gps", handler.ingestGps)
		ingest.POST("/fuel", handler.ingestFuel)
	}

	// operator-facing queries: bearer tokens
	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.GET("/vehicles/live", handler.liveVehicles)
		protected.GET("/trips", handler.listTrips)
		protected.GET("/alerts", handler.listAlerts)
	}

	return router
}
