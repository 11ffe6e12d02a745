package api

import (
	"time"

	routes "geoeditor/internal/api/handlers"
	"geoeditor/internal/service/overlay"
	"geoeditor/internal/service/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps carries what the handlers serve
type Deps struct {
	Sessions *session.Manager
	Overlay  *overlay.Loader
	Markers  *overlay.Markers
	// LinkBase is the page cursor links point to
	LinkBase string
	Info     map[string]string
	Logger   *zap.Logger
}

// NewRouter creates the engine with recovery and request logging
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger))
	SetupRouter(r, d)
	return r
}

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, d Deps) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), d.Info)

	// Setup session handlers
	routes.SetupSessionHandlers(api, routes.NewSessionHandlers(d.Sessions, d.Overlay, d.Markers, d.LinkBase, d.Logger))
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
