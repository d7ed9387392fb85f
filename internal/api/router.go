package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/api/handlers"
	"github.com/stitts-dev/lineup-optimizer/internal/api/middleware"
	"github.com/stitts-dev/lineup-optimizer/internal/websocket"
	"github.com/stitts-dev/lineup-optimizer/pkg/cache"
	"github.com/stitts-dev/lineup-optimizer/pkg/config"
)

// Dependencies are the services shared by all handlers. Hub is optional.
type Dependencies struct {
	Config *config.Config
	Slates handlers.SlateLoader
	Cache  cache.Store
	Hub    *websocket.Hub
	Logger *logrus.Entry
}

// NewRouter builds the gin engine with every route mounted
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())

	var (
		progress handlers.ProgressPublisher
		conns    handlers.ConnectionCounter
	)
	if deps.Hub != nil {
		progress = deps.Hub
		conns = deps.Hub
	}

	optimizationHandler := handlers.NewOptimizationHandler(deps.Slates, deps.Cache, progress, deps.Config, deps.Logger)
	playerHandler := handlers.NewPlayerHandler(deps.Slates, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.Slates, deps.Cache, conns, deps.Logger)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/optimize", optimizationHandler.OptimizeLineups)
		apiV1.POST("/optimize/validate", optimizationHandler.ValidateOptimizationRequest)
		apiV1.GET("/players", playerHandler.GetPlayers)
		apiV1.GET("/health", healthHandler.GetHealth)
		apiV1.GET("/ready", healthHandler.GetReady)
	}

	// Health checks are also served at the root for orchestrators
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	if deps.Hub != nil {
		router.GET("/ws/optimization-progress/:client_id", deps.Hub.HandleWebSocket)
	}

	return router
}
