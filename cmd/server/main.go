package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"storefront-service/internal/config"
	httpctrl "storefront-service/internal/controllers/http"
	mongoinfra "storefront-service/internal/infra/mongo"
	mysqlinfra "storefront-service/internal/infra/mysql"
	"storefront-service/internal/infra/rabbitmq"
	"storefront-service/internal/repository"
	"storefront-service/internal/repository/memory"
	mysqlrepo "storefront-service/internal/repository/mysql"
	"storefront-service/internal/services"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret is not set")
	}

	logger.Info("Starting storefront service",
		zap.String("storage", cfg.Storage),
		zap.Int("port", cfg.Server.Port))

	var (
		checkoutStore repository.CheckoutStore
		productRepo   repository.ProductRepository
		cartRepo      repository.CartRepository
		orderRepo     repository.OrderRepository
	)
	switch cfg.Storage {
	case "memory":
		store := memory.NewStore()
		checkoutStore = store
		productRepo = store.Products()
		cartRepo = store.Cart()
		orderRepo = store.Orders()
		logger.Warn("Using in-memory storage; data does not survive restarts")
	default:
		db, err := mysqlinfra.NewMySQL(&cfg.MySQL)
		if err != nil {
			logger.Fatal("Failed to connect to MySQL", zap.Error(err))
		}
		checkoutStore = mysqlrepo.NewCheckoutStore(db)
		productRepo = mysqlrepo.NewProductRepository(db)
		cartRepo = mysqlrepo.NewCartRepository(db)
		orderRepo = mysqlrepo.NewOrderRepository(db)
	}

	var publisher rabbitmq.PublisherInterface
	if cfg.RabbitMQ.URL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
	}

	var audit mongoinfra.AuditLoggerInterface
	if cfg.MongoDB.URI != "" {
		auditLogger, err := mongoinfra.NewAuditLogger(&cfg.MongoDB)
		if err != nil {
			logger.Warn("Failed to connect to MongoDB, continuing without audit log", zap.Error(err))
		} else {
			audit = auditLogger
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
	}

	checkout := services.NewCheckoutService(checkoutStore, publisher, audit, logger)
	cart := services.NewCartService(productRepo, cartRepo, logger)
	catalog := services.NewCatalogService(productRepo, logger)
	orders := services.NewOrderService(orderRepo, publisher, audit, logger)
	if redisClient != nil {
		checkout.SetRedisClient(redisClient)
		catalog.SetRedisClient(redisClient)
	}

	handler := httpctrl.NewHandler(checkout, cart, catalog, orders, redisClient, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpctrl.RequestLogger(logger))
	handler.RegisterRoutes(r, []byte(cfg.Auth.JWTSecret))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serverErr := make(chan error, 1)
	go func() {
		if err := r.Run(addr); err != nil {
			serverErr <- err
		}
	}()

	logger.Info("Storefront service started", zap.String("address", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Service stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}
