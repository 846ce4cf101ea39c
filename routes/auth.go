package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/freshcatch/seafood-api/auth"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, d Deps) {
	h := auth.NewHandler(d.DB, d.Tokens, d.Google, d.Log)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/google", h.GoogleLogin)
	}
}
