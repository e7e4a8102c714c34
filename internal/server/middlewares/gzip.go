package middlewares

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

var (
	// downloads are served with Content-Length and Range support
	excludedPaths = []string{
		"/healthz",
		"/download/",
	}
	excludedExtensions = []string{
		".png", ".gif", ".jpeg", ".jpg", ".webp",
		".zip", ".tar", ".gz", ".bz2", ".xz", ".zst", ".7z",
	}
)

func GZIP() gin.HandlerFunc {
	return gzip.Gzip(
		gzip.BestSpeed,
		gzip.WithExcludedPaths(excludedPaths),
		gzip.WithExcludedExtensions(excludedExtensions),
	)
}
