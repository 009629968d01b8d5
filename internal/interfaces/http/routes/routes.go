// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// Handlers bundles every API handler and the token authenticator used to
// guard them.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Products  *handlers.ProductHandler
	Cart      *handlers.CartHandler
	Orders    *handlers.OrderHandler
	Reviews   *handlers.ReviewHandler
	Subscribe *handlers.SubscribeHandler
	Upload    *handlers.UploadHandler

	Authenticator middleware.Authenticator
}

// SetupRoutes mounts every API route on rg
func SetupRoutes(rg *gin.RouterGroup, h *Handlers) {
	SetupAuthRoutes(rg, h)
	SetupUserRoutes(rg, h)
	SetupProductRoutes(rg, h)
	SetupCartRoutes(rg, h)
	SetupOrderRoutes(rg, h)
	SetupReviewRoutes(rg, h)
	SetupSubscribeRoutes(rg, h)
	SetupUploadRoutes(rg, h)
}

// SetupAuthRoutes sets up registration and login
func SetupAuthRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/register", h.Auth.Register)
	rg.POST("/login", h.Auth.Login)
}

// SetupUserRoutes sets up user management routes
func SetupUserRoutes(rg *gin.RouterGroup, h *Handlers) {
	users := rg.Group("/users")
	users.Use(middleware.RequireAuth(h.Authenticator))
	{
		users.GET("/:id", h.Users.GetUser)

		admin := users.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("", h.Users.ListUsers)
			admin.PATCH("/:id", h.Users.UpdateUser)
			admin.DELETE("/:id", h.Users.DeleteUser)
		}
	}
}

// SetupProductRoutes sets up catalog routes. Reads are public.
func SetupProductRoutes(rg *gin.RouterGroup, h *Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Products.ListProducts)
		products.GET("/:id", h.Products.GetProduct)
		products.GET("/user/:userId", h.Products.ListByOwner)

		protected := products.Group("")
		protected.Use(middleware.RequireAuth(h.Authenticator))
		{
			protected.POST("", h.Products.CreateProduct)
			protected.PUT("/:id", h.Products.UpdateProduct)
			protected.DELETE("/:id", h.Products.DeleteProduct)
		}
	}
}

// SetupCartRoutes sets up cart routes. Carts are keyed by a caller-supplied
// userId so guests can shop without an account.
func SetupCartRoutes(rg *gin.RouterGroup, h *Handlers) {
	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuth(h.Authenticator))
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("", h.Cart.AddItem)
		cart.PUT("", h.Cart.UpdateItem)
		cart.DELETE("", h.Cart.RemoveItem)
		cart.POST("/calculate", h.Cart.Calculate)
		cart.POST("/checkout", h.Cart.Checkout)
	}
}

// SetupOrderRoutes sets up order routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *Handlers) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.Orders.ListOrders)
		orders.POST("", h.Orders.CreateOrder)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.GET("/:id/receipt", h.Orders.DownloadReceipt)

		admin := orders.Group("")
		admin.Use(middleware.RequireAuth(h.Authenticator), middleware.RequireAdmin())
		{
			admin.PATCH("/:id", h.Orders.UpdateOrder)
			admin.DELETE("/:id", h.Orders.DeleteOrder)
		}
	}
}

// SetupReviewRoutes sets up review routes
func SetupReviewRoutes(rg *gin.RouterGroup, h *Handlers) {
	reviews := rg.Group("/reviews")
	{
		reviews.GET("", h.Reviews.ListReviews)
		reviews.GET("/:id", h.Reviews.GetReview)

		protected := reviews.Group("")
		protected.Use(middleware.RequireAuth(h.Authenticator))
		{
			protected.POST("", h.Reviews.CreateReview)
			protected.PUT("/:id", h.Reviews.UpdateReview)
			protected.DELETE("/:id", h.Reviews.DeleteReview)
		}
	}
}

// SetupSubscribeRoutes sets up the newsletter routes
func SetupSubscribeRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/subscribe", h.Subscribe.Subscribe)
	rg.DELETE("/subscribe", h.Subscribe.Unsubscribe)
}

// SetupUploadRoutes sets up image upload routes
func SetupUploadRoutes(rg *gin.RouterGroup, h *Handlers) {
	upload := rg.Group("/upload")
	upload.Use(middleware.RequireAuth(h.Authenticator))
	{
		upload.POST("", h.Upload.UploadImage)
		upload.DELETE("", h.Upload.DeleteImage)
	}
}
