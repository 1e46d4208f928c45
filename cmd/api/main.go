package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/config"
	"github.com/cartz/cartz-backend/internal/controllers"
	"github.com/cartz/cartz-backend/internal/database"
	"github.com/cartz/cartz-backend/internal/events"
	"github.com/cartz/cartz-backend/internal/logger"
	"github.com/cartz/cartz-backend/internal/middleware"
	"github.com/cartz/cartz-backend/internal/repository"
	"github.com/cartz/cartz-backend/internal/routes"
	"github.com/cartz/cartz-backend/internal/services"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Env)
	defer logger.Sync()
	apierrors.SetProduction(cfg.IsProduction())

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET is required")
	}

	mongoClient, db, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	if err := database.EnsureIndexes(context.Background(), db); err != nil {
		logger.Log.Fatal("failed to ensure indexes", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)
	productRepo := repository.NewMongoProductRepository(db)
	orderRepo := repository.NewMongoOrderRepository(db)
	userRepo := repository.NewMongoUserRepository(db)
	categoryRepo := repository.NewMongoCategoryRepository(db)
	publisher := events.NewRedisPublisher(redisClient, cfg.EventsChannel)

	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, cartRepo, publisher, cfg.AllowUncataloguedItems)
	productService := services.NewProductService(productRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	userService := services.NewUserService(userRepo, cfg.JWTSecret)
	paymentService := services.NewPaymentService(orderRepo, orderService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger.Log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.RateLimitMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.Register(
		router,
		cfg,
		controllers.NewCartController(cartService),
		controllers.NewOrderController(orderService),
		controllers.NewProductController(productService, categoryService),
		controllers.NewUserController(userService),
		controllers.NewPaymentController(paymentService),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("CartZ API listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("shutdown error", zap.Error(err))
	}
	logger.Log.Info("server shutdown complete")
}
