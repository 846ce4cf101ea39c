package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/auth"
	"github.com/freshcatch/seafood-api/config"
	cartControllers "github.com/freshcatch/seafood-api/controllers/cart"
	orderControllers "github.com/freshcatch/seafood-api/controllers/order"
	telrControllers "github.com/freshcatch/seafood-api/controllers/telr"
	"github.com/freshcatch/seafood-api/logger"
	"github.com/freshcatch/seafood-api/storage"
)

// Deps is everything the route groups need. Handlers are built from it by
// SetupRoutes.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Log    *zap.Logger
	Store  storage.Store
	Tokens *auth.Tokens
	Google auth.GoogleVerifier
	Hub    *orderControllers.Hub
	Orders *orderControllers.Handler
	Carts  *cartControllers.Handler
	Telr   *telrControllers.Handler
}

// NewRouter builds the engine with logging, recovery, CORS and every route
// group.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(logger.Middleware(d.Log), logger.Recovery(d.Log))

	// product and banner uploads
	r.MaxMultipartMemory = 32 << 20

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SetupRoutes(r, d)
	return r
}

// SetupRoutes is the single entry-point that wires up every route group.
func SetupRoutes(r *gin.Engine, d Deps) {
	// public
	SetupAuthRoutes(r, d)
	SetupCatalogRoutes(r, d)

	// JWT-protected
	SetupUserRoutes(r, d)
	SetupTelrRoutes(r, d)

	// API-key-protected
	SetupAdminRoutes(r, d)
}
