package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/config"
)

// NewEngine builds the gin engine and mounts all registrars under /api.
func NewEngine(cfg *config.Config, registrars ...Registrar) *gin.Engine {
	if cfg.App.ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	for _, r := range registrars {
		r.Register(api)
	}
	return engine
}

// StartHTTPServer boots the HTTP server and blocks.
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	engine := NewEngine(cfg, registrars...)
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return engine.Run(addr)
}
