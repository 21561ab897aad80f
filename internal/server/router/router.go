package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/krishichain/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.LedgerHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	r.GET("/healthz", health)

	api := r.Group("/api")
	{
		api.GET("/health", health)

		api.POST("/farmer/register-product", handler.RegisterProduct)
		api.POST("/distributor/add-record", handler.AddDistributionRecord)
		api.POST("/retailer/add-record", handler.AddRetailRecord)
		api.POST("/customer/verify/:code", handler.MarkVerified)

		api.GET("/verify-product/:code", handler.VerifyProduct)
		api.GET("/trace/:code", handler.Trace)
		api.GET("/dashboard/:role", handler.Dashboard)
		api.GET("/products", handler.ListProducts)
		api.GET("/products/:code/qr.png", handler.QRImage)
		api.GET("/reports/summary", handler.Summary)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
