package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/freshcatch/seafood-api/middleware"
)

func SetupTelrRoutes(r *gin.Engine, d Deps) {
	payment := r.Group("/payment")
	{
		payment.POST("/place", middleware.ValidateToken(d.Tokens), d.Telr.PaymentRequestHandler)

		// Webhook endpoint: middleware handles sandbox/prod verification
		payment.POST("/webhook",
			middleware.TelrWebhookAuth(d.Config.TelrWebhookKey, d.Config.TelrMode, d.Log),
			d.Telr.TelrWebhookHandler,
		)
	}
}
