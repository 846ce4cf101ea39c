package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/freshcatch/seafood-api/middleware"
	"github.com/freshcatch/seafood-api/models"
)

// SetupOrderRoutes hangs the order endpoints under an authenticated group.
func SetupOrderRoutes(g *gin.RouterGroup, d Deps) {
	supplierOnly := middleware.RequireRole(models.RoleSupplier)

	orders := g.Group("/orders")
	{
		orders.POST("", d.Orders.PlaceOrderHandler)
		orders.GET("", d.Orders.ListOrders)

		// websocket endpoint for real-time order updates
		orders.GET("/ws", supplierOnly, d.Hub.ServeWS)

		orders.GET("/:orderID", d.Orders.GetOrder)
		orders.PUT("/:orderID/status", supplierOnly, d.Orders.UpdateOrderStatus)
	}
}
