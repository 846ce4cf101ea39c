package routes

import (
	"github.com/gin-gonic/gin"

	adminController "github.com/freshcatch/seafood-api/controllers/admin"
	productcontroller "github.com/freshcatch/seafood-api/controllers/product"
	"github.com/freshcatch/seafood-api/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-Key middleware.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(d.Config.AdminAPIKey))
	{
		// ─────────── User Management ───────────
		adminGroup.GET("/users", adminController.GetAllUsers(d.DB))

		suppliers := adminGroup.Group("/suppliers")
		{
			suppliers.POST("/approve", adminController.ApproveSupplier(d.DB))
			suppliers.POST("/revoke", adminController.RevokeSupplier(d.DB))
		}

		adminGroup.GET("/user-cart/:user_id", d.Carts.GetAdminUserCart)

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.GET("/export-excel", productcontroller.ExportProductsToExcel(d.DB))
			productAdmin.POST("/import-excel", productcontroller.ImportProductsFromExcel(d.DB, d.Log))
		}

		bannerMgmt := adminGroup.Group("/banners")
		{
			bannerMgmt.POST("", adminController.UploadBanner(d.DB, d.Store, d.Log))
			bannerMgmt.GET("", adminController.GetBanners(d.DB))
			bannerMgmt.DELETE("/:id", adminController.DeleteBanner(d.DB, d.Store, d.Log))
		}

		adminGroup.PUT("/orders/:orderID/payment-status", d.Orders.UpdatePaymentStatus)
	}
}
