package transport

import (
	"path/filepath"

	"github.com/ds124wfegd/genrelay/config"
	"github.com/ds124wfegd/genrelay/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(relayHandler *RelayHandler, cfg *config.Config) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.JobID())
	router.Use(middleware.Logger())

	router.POST("/generate",
		middleware.BodyLimit(cfg.Server.MaxBodyBytes),
		middleware.Timeout(cfg.Relay.Deadline),
		relayHandler.Generate,
	)

	staticDir := cfg.Server.StaticDir
	router.Static("/static", staticDir)
	router.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(staticDir, "index.html"))
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "generation-relay",
		})
	})
	return router
}
