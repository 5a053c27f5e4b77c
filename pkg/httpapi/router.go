package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/patterns"
	"github.com/jakechorley/timegrid/pkg/db"
)

// Options configures the router
type Options struct {
	// AllowedOrigins lists the CORS origins; empty allows any origin
	AllowedOrigins []string
	MergePolicy    patterns.Policy
	// Health reports whether the backing services are reachable; nil always reports healthy
	Health func(ctx context.Context) error
}

type handlers struct {
	store  db.Database
	logger *zap.Logger
	policy patterns.Policy
}

// NewRouter builds the HTTP API on top of store
func NewRouter(store db.Database, logger *zap.Logger, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), cors.New(corsConfig(opts.AllowedOrigins)))

	h := &handlers{store: store, logger: logger, policy: opts.MergePolicy}

	r.GET("/healthz", func(ctx *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(ctx.Request.Context()); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				ctx.JSON(http.StatusServiceUnavailable, envelope{Success: false, Error: "unhealthy"})
				return
			}
		}
		ctx.JSON(http.StatusOK, envelope{Success: true, Data: gin.H{"status": "ok"}})
	})

	api := r.Group("/api")
	{
		api.POST("/users", resolve(http.StatusOK, h.syncUser))
		api.GET("/users/:id/patterns", resolve(http.StatusOK, h.listPatterns))
		api.GET("/users/:id/calendar.ics", h.exportPatterns)

		api.POST("/events", resolve(http.StatusCreated, h.createEvent))
		api.GET("/events", resolve(http.StatusOK, h.listEvents))
		api.GET("/events/:id", resolve(http.StatusOK, h.getEvent))
		api.GET("/events/:id/results", resolve(http.StatusOK, h.eventResults))
		api.PUT("/events/:id/votes", resolve(http.StatusOK, h.submitVotes))
		api.GET("/events/:id/suggestions", resolve(http.StatusOK, h.suggestions))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS", "HEAD"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Disposition",
		},
		AllowCredentials: false,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
