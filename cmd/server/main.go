package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"orderflow/internal/config"
	handlers "orderflow/internal/controllers/http"
	"orderflow/internal/infra/delhivery"
	"orderflow/internal/infra/mailer"
	mmysql "orderflow/internal/infra/mysql"
	"orderflow/internal/infra/payu"
	"orderflow/internal/infra/rabbitmq"
	"orderflow/internal/middleware"
	mysqlrepo "orderflow/internal/repository/mysql"
	"orderflow/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := mmysql.New(cfg.MySQL)
	if err != nil {
		logger.Fatal("db: connect", zap.Error(err))
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1000)
	sqlDB.SetMaxIdleConns(200)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	orderRepo := mysqlrepo.NewOrderRepository(db)
	cartRepo := mysqlrepo.NewCartRepository(db)
	productRepo := mysqlrepo.NewProductRepository(db)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Fatal("rabbitmq: connect", zap.Error(err))
	}
	defer publisher.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		DB:           0,
		PoolSize:     200,
		MinIdleConns: 20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	gateway := payu.New(cfg.PayU, logger)
	carrier := delhivery.New(cfg.Delhivery, logger)
	mail := mailer.NewSMTP(cfg.SMTP)

	dispatcher := services.NewWorkerPool(4, 256, logger)
	defer dispatcher.Stop()

	checkoutSvc := services.NewCheckoutService(orderRepo, cartRepo, productRepo, publisher, logger)
	checkoutSvc.SetRedisClient(redisClient)
	orderSvc := services.NewOrderService(orderRepo, carrier, logger)
	shipmentSvc := services.NewShipmentService(orderRepo, carrier, publisher, logger)
	paymentSvc := services.NewPaymentService(
		orderRepo, gateway, shipmentSvc, mail, publisher, dispatcher,
		cfg.Frontend.BaseURL, cfg.Server.PublicURL, logger,
	)

	orderHandler := handlers.NewOrderHandler(checkoutSvc, orderSvc)
	paymentHandler := handlers.NewPaymentHandler(paymentSvc)
	adminHandler := handlers.NewAdminHandler(orderSvc, shipmentSvc)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// Gateway callbacks authenticate by hash, not by user token.
	paymentHandler.RegisterCallbacks(r)

	user := r.Group("/", middleware.RequireUser(cfg.JWT))
	orderHandler.Register(user)
	paymentHandler.RegisterUser(user)

	admin := r.Group("/", middleware.RequireAdmin(cfg.JWT))
	adminHandler.Register(admin)

	logger.Info("starting order service", zap.String("addr", cfg.Server.Addr()))
	if err := r.Run(cfg.Server.Addr()); err != nil {
		logger.Fatal("server run", zap.Error(err))
	}
}
