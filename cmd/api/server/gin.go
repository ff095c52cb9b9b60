package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"travel-account-service/cmd/api/di"
	ginrouter "travel-account-service/internal/adapter/gin/router"
)

// SetupGinServer creates and configures the Gin HTTP server
func SetupGinServer(container *di.Container, addr string, l *zap.Logger) *http.Server {
	router := ginrouter.SetupRouter(
		container.AuthHandler,
		container.AccountHandler,
		container.Sessions,
		container.RedisClient.Client,
		l,
	)

	l.Info("HTTP API configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
