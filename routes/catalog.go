package routes

import (
	"github.com/gin-gonic/gin"

	adminController "github.com/freshcatch/seafood-api/controllers/admin"
	productcontroller "github.com/freshcatch/seafood-api/controllers/product"
)

// SetupCatalogRoutes registers the browsing endpoints. No login needed.
func SetupCatalogRoutes(r *gin.Engine, d Deps) {
	products := r.Group("/products")
	{
		products.GET("", productcontroller.GetProducts(d.DB))
		products.GET("/popular", productcontroller.GetPopularProducts(d.DB))
		products.GET("/on-sale", productcontroller.GetOnSaleProducts(d.DB))
		products.GET("/:id", productcontroller.GetProductByID(d.DB))
	}

	categories := r.Group("/categories")
	{
		categories.GET("", productcontroller.GetAllCategories(d.DB))
		categories.GET("/:id/products", productcontroller.GetCategoryProducts(d.DB))
	}

	r.GET("/banners", adminController.GetBanners(d.DB))
}
