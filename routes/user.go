package routes

import (
	"github.com/gin-gonic/gin"

	productcontroller "github.com/freshcatch/seafood-api/controllers/product"
	userControllers "github.com/freshcatch/seafood-api/controllers/user"
	"github.com/freshcatch/seafood-api/middleware"
	"github.com/freshcatch/seafood-api/models"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, d Deps) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken(d.Tokens))
	{
		// ──────────────── Profile ────────────────
		userGroup.GET("/profile", userControllers.GetUser(d.DB))
		userGroup.PUT("/profile", userControllers.UpdateUser(d.DB))

		addresses := userGroup.Group("/addresses")
		{
			addresses.GET("", userControllers.ListAddresses(d.DB))
			addresses.POST("", userControllers.AddAddress(d.DB))
			addresses.DELETE("/:id", userControllers.DeleteAddress(d.DB))
		}

		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", d.Carts.GetUserCart)
			cartGroup.POST("", d.Carts.AddCartItem)
			cartGroup.DELETE("", d.Carts.ClearUserCart)
			cartGroup.POST("/quote", d.Carts.QuoteCart)
			cartGroup.PATCH("/:line_id", d.Carts.UpdateCartItem)
			cartGroup.DELETE("/:line_id", d.Carts.DeleteCartItem)
		}

		// ──────────────── Orders ────────────────
		SetupOrderRoutes(userGroup, d)

		// ──────────────── Supplier catalogue ────────────────
		supplierOnly := middleware.RequireRole(models.RoleSupplier)
		userGroup.POST("/products", supplierOnly, productcontroller.CreateProduct(d.DB, d.Store, d.Log))
		userGroup.PUT("/products/:id", supplierOnly, productcontroller.UpdateProduct(d.DB, d.Store, d.Log))
		userGroup.DELETE("/products/:id", supplierOnly, productcontroller.DeleteProduct(d.DB, d.Log))
		userGroup.POST("/categories", supplierOnly, productcontroller.CreateCategory(d.DB, d.Store, d.Log))
	}
}
