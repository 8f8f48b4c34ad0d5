package routes

import (
	"github.com/gin-gonic/gin"

	"tempora_back_end/internal/chat"
	"tempora_back_end/internal/handlers"
	"tempora_back_end/internal/middleware"
)

// RegisterRoutes branche les surfaces de chat et la console opérateur.
// withRedis désactive les middlewares adossés à Redis (profil mémoire).
func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, customers, admins *chat.Gateway, withRedis bool) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Surfaces de chat
	r.GET("/ws/client", customers.Serve)
	r.GET("/ws/admin", admins.Serve)

	// Console opérateur
	api := r.Group("/api")
	if withRedis {
		api.Use(middleware.APIRateLimit())
	}

	if withRedis {
		api.POST("/auth/login", middleware.LoginRateLimit(), h.Login)
	} else {
		api.POST("/auth/login", h.Login)
	}

	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired(), middleware.RequireOperator)
	{
		authorized.GET("/orders/pending", h.ListPendingOrders)
		authorized.GET("/orders/:id", h.GetOrder)
		authorized.GET("/orders/:id/proof", h.GetProofURL)
		authorized.POST("/orders/:id/verify", h.VerifyOrder)

		authorized.GET("/categories", h.ListCategories)
		authorized.POST("/categories", h.CreateCategory)
		authorized.GET("/products", h.ListProducts)
		authorized.GET("/products/:id", h.GetProduct)
		authorized.POST("/products", h.CreateProduct)
		authorized.DELETE("/products/:id", h.DeactivateProduct)
		authorized.PUT("/products/:id/stock", h.UpdateStock)

		authorized.GET("/stats/daily", h.DailyStats)
		authorized.GET("/stats/weekly", h.WeeklyStats)
		authorized.GET("/stats/monthly", h.MonthlyStats)
		authorized.GET("/stats/top", h.TopProducts)
		authorized.GET("/stats/status", h.StatusDistribution)
	}
}
