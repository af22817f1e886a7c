package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sinkandika/fyzy-web/internal/api/handlers"
	"github.com/sinkandika/fyzy-web/internal/api/middleware"
	"github.com/sinkandika/fyzy-web/internal/config"
	"github.com/sinkandika/fyzy-web/internal/services"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database) *gin.Engine {
	accountService := services.NewAccountService(db)
	invoiceService := services.NewInvoiceService(db)
	customerService := services.NewCustomerService(db)
	payoutService := services.NewPayoutService(db)
	earningsService := services.NewEarningsService(db)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Order matters: CORS before rate limiting so preflights get headers.
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewAuthHandler(accountService, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	earningsHandler := handlers.NewEarningsHandler(earningsService, cfg)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/invoices", invoiceHandler.Create)
			authRequired.GET("/invoices", invoiceHandler.List)
			authRequired.GET("/invoices/counter", invoiceHandler.Counter)
			authRequired.GET("/invoices/:id", invoiceHandler.GetView)
			authRequired.GET("/invoices/:id/edit", invoiceHandler.GetEdit)
			authRequired.PUT("/invoices/:id", invoiceHandler.Update)
			authRequired.DELETE("/invoices/:id", invoiceHandler.Delete)

			authRequired.GET("/customers", customerHandler.List)
			authRequired.GET("/customers/:id", customerHandler.Get)

			authRequired.POST("/payouts", payoutHandler.Create)
			authRequired.GET("/payouts", payoutHandler.List)

			authRequired.GET("/earnings", earningsHandler.Summary)
		}
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine.
// It only exposes local management commands, currently just shutdown.
func SetupServiceRouter(shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				log.Println("Shutdown signal sent successfully.")
			default:
				log.Println("Shutdown channel already signaled or blocked.")
			}
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Unknown service method: " + req.Method})
		}
	})
	return r
}
