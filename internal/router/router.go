package router

import (
	"net/http"
	"time"

	"github.com/vzwork/locus/internal/handler"
	"github.com/vzwork/locus/internal/middleware"
	"github.com/vzwork/locus/internal/types"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP engine with all middleware and routes.
func NewRouter(
	serverHandler *handler.Server,
	configManager types.ConfigManager,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Register global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger(configManager.GetLogConfig()))
	router.Use(middleware.CORS(configManager.GetCORSConfig()))
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	startTime := time.Now()
	router.Use(func(c *gin.Context) {
		c.Set("serverStartTime", startTime)
		c.Next()
	})

	registerSystemRoutes(router, serverHandler)
	registerAPIRoutes(router, serverHandler, configManager)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	return router
}

// registerSystemRoutes registers system-level routes
func registerSystemRoutes(router *gin.Engine, serverHandler *handler.Server) {
	router.GET("/health", serverHandler.Health)
}

// registerAPIRoutes registers API routes
func registerAPIRoutes(
	router *gin.Engine,
	serverHandler *handler.Server,
	configManager types.ConfigManager,
) {
	api := router.Group("/api")
	api.Use(middleware.Auth(configManager.GetAuthConfig()))

	channels := api.Group("/channels")
	{
		channels.POST("", serverHandler.CreateChannel)
		channels.GET("/:id", serverHandler.GetChannel)
		channels.GET("/:id/children", serverHandler.GetChildChannels)
		channels.GET("/:id/posts", serverHandler.GetTopPosts)
		channels.POST("/:id/views", serverHandler.AddChannelView)
	}

	posts := api.Group("/posts")
	{
		posts.POST("", serverHandler.CreatePost)
		posts.GET("/:id", serverHandler.GetPost)
		posts.POST("/:id/positive", serverHandler.AddPositive)
		posts.DELETE("/:id/positive", serverHandler.RemovePositive)
		posts.POST("/:id/stars", serverHandler.AddStar)
		posts.DELETE("/:id/stars", serverHandler.RemoveStar)
		posts.POST("/:id/books", serverHandler.AddBook)
		posts.DELETE("/:id/books", serverHandler.RemoveBook)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", serverHandler.ListJobs)
		tasks.POST("/:name/trigger", serverHandler.TriggerJob)
		tasks.GET("/runs", serverHandler.GetJobRunCounts)
	}
}
