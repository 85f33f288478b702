// Package preview serves generated posts over HTTP for local review.
package preview

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func NewServer(handler *Handler, accessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
			)
		},
	}))
	r.Use(gin.Recovery())

	setupRoutes(r, handler, accessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, accessKey string) {
	r.GET("/", handler.GetIndex)
	r.GET("/health", handler.GetHealth)
	r.GET("/feed.xml", handler.GetFeed)
	r.GET("/posts", handler.ListPosts)
	r.GET("/posts/:name", handler.GetPost)

	runs := r.Group("/runs")
	if accessKey != "" {
		runs.Use(authMiddleware(accessKey))
		slog.Info("Run history protected by access key")
	}
	runs.GET("", handler.ListRuns)

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

func authMiddleware(accessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")
		if providedKey == "" {
			providedKey = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}

		if providedKey != accessKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or missing API key",
			})
			return
		}

		c.Next()
	}
}
