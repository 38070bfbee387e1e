package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with middleware and routes
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger(logger))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	RegisterRoutes(router, h)
	return router
}

// RegisterRoutes attaches the API routes to a router
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health/live", h.Live)

	v1 := r.Group("/api/v1")
	{
		batches := v1.Group("/batches/:batchID")
		batches.POST("/requirements", h.Requirements)
		batches.POST("/requirements/export", h.ExportRequirements)
		batches.POST("/calculate", h.Calculate)

		orders := v1.Group("/orders/:orderID")
		orders.POST("/allocate", h.Allocate)
		orders.POST("/remediation-sessions", h.OpenSession)
		orders.POST("/client-requests", h.RequestClientMaterial)

		sessions := v1.Group("/remediation-sessions/:sessionID")
		sessions.GET("", h.GetSession)
		sessions.PUT("/lines/:index", h.ChooseAction)
		sessions.POST("/submit", h.SubmitSession)
		sessions.POST("/defer", h.DeferSession)
	}
}
