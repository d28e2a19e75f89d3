package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/http/handlers"
	"github.com/phambaophuc/image-generator/internal/http/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Generation *handlers.GenerationHandler
	Batch      *handlers.BatchHandler
	History    *handlers.HistoryHandler
	Credits    *handlers.CreditsHandler
	Admin      *handlers.AdminHandler
	Health     *handlers.HealthHandler
}

type Router struct {
	handlers Handlers
	adminKey string
	logger   *zap.Logger
}

func NewRouter(h Handlers, adminKey string, logger *zap.Logger) *Router {
	return &Router{
		handlers: h,
		adminKey: adminKey,
		logger:   logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.handlers.Health.HealthCheck)

		user := v1.Group("", middleware.UserIdentity())
		{
			user.POST("/generate", r.handlers.Generation.Generate)
			user.GET("/credits", r.handlers.Credits.Get)

			batches := user.Group("/batches")
			{
				batches.POST("", r.handlers.Batch.Create)
				batches.GET("/:id", r.handlers.Batch.Get)
				batches.DELETE("/:id", r.handlers.Batch.Cancel)
			}

			history := user.Group("/history")
			{
				history.GET("", r.handlers.History.List)
				history.GET("/:id", r.handlers.History.Get)
				history.DELETE("/:id", r.handlers.History.Delete)
				history.GET("/:id/thumbnail", r.handlers.History.Thumbnail)
			}
		}

		admin := v1.Group("/admin", middleware.AdminOnly(r.adminKey))
		{
			admin.GET("/stats", r.handlers.Admin.Stats)
			admin.GET("/users", r.handlers.Admin.Users)
			admin.POST("/credits", r.handlers.Admin.GrantCredits)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image generator is running",
		})
	})

	return router
}
