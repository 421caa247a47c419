package routes

import (
	"usercache-api/internal/handlers"
	"usercache-api/internal/middleware"
	"usercache-api/internal/realtime"
	"usercache-api/internal/session"
	"usercache-api/internal/stores"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the long-lived components the routes are served from.
type Deps struct {
	Registry *stores.Registry
	Sessions *session.Store
	Hub      *realtime.Hub
	Logger   *zap.Logger
}

func SetupRoutes(deps Deps) *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.Default()

	// CORS middleware (for browser clients of the API)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, HEAD")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	authHandler := handlers.NewAuthHandler(deps.Sessions)
	cacheHandler := handlers.NewCacheHandler(deps.Registry, deps.Logger)
	storeHandler := handlers.NewStoreHandler(deps.Registry, deps.Logger)
	sessionHandler := handlers.NewSessionHandler(deps.Sessions)
	streamHandler := handlers.NewStreamHandler(deps.Registry, deps.Hub, deps.Logger)

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "User cache API is running",
			"stores":  deps.Registry.Names(),
		})
	})

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/login", authHandler.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware(deps.Sessions))
	{
		protectedRoutes.POST("/logout", authHandler.Logout)
		protectedRoutes.GET("/users", handlers.GetAllUsers)

		// Store definitions
		protectedRoutes.GET("/stores", storeHandler.ListStores)
		protectedRoutes.POST("/stores", storeHandler.CreateStore)
		protectedRoutes.DELETE("/stores/:store", storeHandler.DeleteStore)

		// Cache operations
		storeRoutes := protectedRoutes.Group("/stores/:store")
		storeRoutes.GET("/ready", cacheHandler.Ready)
		storeRoutes.GET("/stats", cacheHandler.Stats)
		storeRoutes.GET("/keys/:key", cacheHandler.GetKey)
		storeRoutes.HEAD("/keys/:key", cacheHandler.HasKey)
		storeRoutes.PUT("/keys/:key", cacheHandler.SetKey)
		storeRoutes.DELETE("/keys/:key", cacheHandler.DeleteKey)
		storeRoutes.POST("/get-many", cacheHandler.GetMany)
		storeRoutes.POST("/set-many", cacheHandler.SetMany)
		storeRoutes.POST("/delete-many", cacheHandler.DeleteMany)
		storeRoutes.POST("/has-any", cacheHandler.HasAny)
		storeRoutes.POST("/has-all", cacheHandler.HasAll)
		storeRoutes.POST("/purge", cacheHandler.Purge)

		// Sessions
		protectedRoutes.GET("/sessions", sessionHandler.CountSessions)
		protectedRoutes.GET("/sessions/:sid/exists", sessionHandler.SessionExists)
		protectedRoutes.DELETE("/sessions/:sid", sessionHandler.DestroySession)
	}

	ws := ginRouter.Group("/ws")
	ws.Use(middleware.JWTAuthMiddleware(deps.Sessions))
	{
		ws.GET("/stores/:store", streamHandler.StoreEvents)
	}

	return ginRouter
}
