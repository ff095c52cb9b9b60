package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"travel-account-service/internal/adapter/gin/handler"
	"travel-account-service/internal/adapter/gin/middleware"
	"travel-account-service/internal/auth/session"
)

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(
	authHandler *handler.AuthHandler,
	accountHandler *handler.AccountHandler,
	sessions *session.Manager,
	redisClient *redis.Client,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "travel-account-service",
		})
	})

	// Sign-in flow, rate limited per client
	auth := router.Group("/auth")
	auth.Use(middleware.RateLimiter(redisClient, middleware.RateLimitConfig{
		RequestsPerSecond: 10,
		BurstCapacity:     20,
	}, log))
	{
		auth.POST("/sign-in/:provider", authHandler.SignIn)
		auth.GET("/callback", authHandler.Callback)
		auth.POST("/sign-out", authHandler.SignOut)
	}

	// Account management, session required
	v1 := router.Group("/v1")
	v1.Use(middleware.RequireSession(sessions, log))
	{
		acc := v1.Group("/account")
		{
			acc.GET("", accountHandler.GetAccount)
			acc.PUT("", accountHandler.UpdateProfile)
			acc.PUT("/favorites", accountHandler.UpdateFavorites)
			acc.POST("/logins", accountHandler.LinkLogin)
			acc.DELETE("/logins/:provider/:key", accountHandler.UnlinkLogin)
			acc.POST("/access-token", accountHandler.GenerateAccessToken)
			acc.DELETE("", accountHandler.DeleteAccount)
		}
	}

	return router
}
