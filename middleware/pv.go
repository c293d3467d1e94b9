package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/engforum/engforum/utils"
)

// PageViewStore persists page view counters.
type PageViewStore interface {
	RecordPageView(ctx context.Context, path string) error
}

// countedPrefixes are the content endpoints that count as page views.
var countedPrefixes = []string{"/api/v1/threads", "/api/v1/categories", "/api/v1/users/"}

// PageViewRecorder counts successful GETs of content endpoints per day and path.
func PageViewRecorder(store PageViewStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 400 {
			return
		}
		path := c.Request.URL.Path
		counted := false
		for _, p := range countedPrefixes {
			if strings.HasPrefix(path, p) {
				counted = true
				break
			}
		}
		if !counted {
			return
		}

		if err := store.RecordPageView(c.Request.Context(), path); err != nil {
			utils.Logger.Warn("record page view failed", zap.String("path", path), zap.Error(err))
		}
	}
}
