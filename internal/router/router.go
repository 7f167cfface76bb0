// Package router exposes the orchestration engine over HTTP.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
	"github.com/kunal1000-star/RouteNew-sub010/internal/orchestrator"
	"github.com/kunal1000-star/RouteNew-sub010/pkg/metrics"
)

// SetupRouter creates and configures the main HTTP router.
func SetupRouter(engine *orchestrator.Engine) *gin.Engine {
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"providers": engine.HealthSnapshot(),
		})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/chat", chatHandler(engine))
	}

	return r
}

func chatHandler(engine *orchestrator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}

		resp := engine.Chat(c.Request.Context(), &req)
		c.JSON(http.StatusOK, resp)
	}
}
