package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cartz/cartz-backend/internal/config"
	"github.com/cartz/cartz-backend/internal/controllers"
	"github.com/cartz/cartz-backend/internal/middleware"
)

// Register wires every API route under /api. Cart, checkout, order and
// payment routes require authentication; admin routes additionally
// require the admin role claim.
func Register(
	router *gin.Engine,
	cfg config.Config,
	cartController *controllers.CartController,
	orderController *controllers.OrderController,
	productController *controllers.ProductController,
	userController *controllers.UserController,
	paymentController *controllers.PaymentController,
) {
	api := router.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/register", userController.Register)
		users.POST("/login", userController.Login)
		users.GET("/profile", middleware.RequireAuth(cfg.JWTSecret), userController.GetProfile)
	}

	api.GET("/products", productController.ListProducts)
	api.GET("/products/:id", productController.GetProduct)
	api.GET("/categories", productController.ListCategories)

	auth := api.Group("", middleware.RequireAuth(cfg.JWTSecret))
	{
		cart := auth.Group("/cart")
		{
			cart.GET("", cartController.GetCart)
			cart.POST("/add", cartController.AddItem)
			cart.PUT("/update/:itemId", cartController.UpdateItem)
			cart.DELETE("/remove/:itemId", cartController.RemoveItem)
			cart.DELETE("/clear", cartController.ClearCart)
			cart.POST("/sync", cartController.SyncCart)
		}

		auth.GET("/checkout/session", cartController.CheckoutSession)
		auth.POST("/checkout", orderController.CreateOrder)

		orders := auth.Group("/orders")
		{
			orders.POST("", orderController.CreateOrder)
			orders.GET("/myorders", orderController.GetMyOrders)
			orders.GET("/:id", orderController.GetOrder)
			orders.PUT("/:id/status", middleware.RequireAdmin(), orderController.UpdateStatus)
			orders.PUT("/:id/cancel", orderController.CancelOrder)
		}

		auth.POST("/payments/process", paymentController.ProcessPayment)

		admin := auth.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("/orders", orderController.GetAllOrders)
			admin.POST("/products", productController.CreateProduct)
			admin.PUT("/products/:id", productController.UpdateProduct)
			admin.DELETE("/products/:id", productController.DeleteProduct)
			admin.POST("/categories", productController.CreateCategory)
		}
	}
}
