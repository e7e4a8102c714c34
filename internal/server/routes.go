package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmined/dirsync/internal/server/handlers/objects"
	"github.com/openmined/dirsync/internal/server/middlewares"
)

func SetupRoutes(cfg *Config, svc *Services) (http.Handler, error) {
	r := gin.New()

	objectsH := objects.New(svc.Store)

	r.Use(middlewares.Logger())
	r.Use(gin.Recovery())
	r.Use(middlewares.GZIP())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Secure(cfg.HTTP.CertFile != ""))

	if cfg.HTTP.RateLimit != "" {
		limiter, err := middlewares.RateLimiter(cfg.HTTP.RateLimit)
		if err != nil {
			return nil, err
		}
		r.Use(limiter)
	}

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	r.GET("/exists/:name", objectsH.Exists)
	r.GET("/checksum/:name", objectsH.Checksum)
	r.GET("/download/:name", objectsH.Download)
	r.GET("/list/", objectsH.List)
	r.POST("/upload/", objectsH.Upload)
	r.POST("/upload_chunk/:name/:index", objectsH.UploadChunk)
	r.POST("/truncate/", objectsH.Truncate)
	r.POST("/delete/", objectsH.Delete)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method not allowed",
		})
	})

	return r.Handler(), nil
}

func IndexHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"message": "Nothing to see here",
	})
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
