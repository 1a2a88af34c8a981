package api

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/middleware"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/web"
)

// staticHandler serves the embedded frontend for routes outside /api. Unknown
// paths fall back to index.html so client-side routing keeps working; API
// misses stay JSON 404s.
func staticHandler() gin.HandlerFunc {
	dist, err := web.FS()
	if err != nil {
		return middleware.NotFoundHandler
	}
	fileServer := http.FileServer(http.FS(dist))

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
			middleware.NotFoundHandler(c)
			return
		}

		name := strings.TrimPrefix(path, "/")
		if name == "" {
			name = "index.html"
		}
		if _, statErr := fs.Stat(dist, name); statErr != nil {
			c.Request.URL.Path = "/"
		}

		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
