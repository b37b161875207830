// Package api implements the HTTP read API over stored product records.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salewatch/salewatch/internal/logger"
)

// Params holds the parameters for creating an API server.
type Params struct {
	Repo     ProductReader
	Logger   logger.Interface
	Gatherer prometheus.Gatherer
}

// NewRouter builds the gin router with all routes registered.
func NewRouter(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(p.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if p.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(
			promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}),
		))
	}

	products := NewProductsHandler(p.Repo)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", products.ListProducts)
		v1.GET("/products/:id", products.GetProduct)
	}

	return router
}

// requestLogger logs each request at debug level.
func requestLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
