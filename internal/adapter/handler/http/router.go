package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MikeRez0/novacart/internal/adapter/config"
	"github.com/MikeRez0/novacart/internal/adapter/metrics"
	"github.com/MikeRez0/novacart/internal/core/port"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Pinger reports storage health; nil means there is nothing to check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	*gin.Engine
	logger *zap.Logger
}

func NewRouter(
	conf *config.HTTP,
	tokenService port.TokenService,
	reg *metrics.Registry,
	db Pinger,
	orderHandler *OrderHandler,
	userHandler *UserHandler,
	productHandler *ProductHandler,
	logger *zap.Logger) (*Router, error) {

	router := gin.New()
	router.Use(gin.Recovery(), reg.Middleware(), cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch},
		AllowHeaders:    []string{"Origin", "Content-Type", authHeaderKey},
		MaxAge:          12 * time.Hour,
	}))

	h := NewHandler(logger)
	auth := authCheck(h, tokenService)

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(reg.Handler()))
	router.GET("/health", health(db))

	api := router.Group("/api")
	{
		user := api.Group("/user")
		{
			user.POST("/register", optionalAuth(tokenService), userHandler.RegisterUser)
			user.POST("/login", userHandler.LoginUser)
		}

		products := api.Group("/products")
		{
			products.GET("/:id", productHandler.GetProduct)
			products.POST("", auth, productHandler.CreateProduct)
			products.PATCH("/:id/stock", auth, productHandler.AdjustStock)
		}

		orders := api.Group("/orders")
		{
			orders.Use(auth)
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/mine", orderHandler.ListOrdersByUser)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.PUT("/:id/status", orderHandler.UpdateOrderStatus)
		}
	}

	return &Router{Engine: router, logger: logger}, nil
}

func health(db Pinger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
				return
			}
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (r *Router) Serve(ctx context.Context, listenAddr string) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           r.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("Listening", zap.String("address", listenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	r.logger.Info("Shutting down")
	return srv.Shutdown(shutdownCtx)
}
