package main

import (
	"context"
	"database/sql"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tallybank/ledger-service/internal/command"
	"github.com/tallybank/ledger-service/internal/config"
	"github.com/tallybank/ledger-service/internal/events"
	"github.com/tallybank/ledger-service/internal/handler"
	"github.com/tallybank/ledger-service/internal/middleware"
	"github.com/tallybank/ledger-service/internal/projector"
	"github.com/tallybank/ledger-service/internal/query"
	redisClient "github.com/tallybank/ledger-service/internal/redis"
	"github.com/tallybank/ledger-service/internal/repository"
	"github.com/tallybank/ledger-service/internal/validation"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()

	// Database connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	// Redis connection
	redis, err := redisClient.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	// Storage layer: atomic-scope store, write repos, redis-backed read repos
	store := repository.NewStore(db, log)
	userWrites := repository.NewUserWriteRepository(db)
	txnWrites := repository.NewTransactionWriteRepository(db)
	userReads := repository.NewUserReadRepository(db, redis.Client, log)
	txnReads := repository.NewTransactionReadRepository(db, redis.Client, log)

	// Startup reconciliation: flag any balance that no longer matches the
	// sum of its transactions before taking traffic.
	if drifted, err := store.CheckBalances(context.Background()); err != nil {
		log.Warn("balance reconciliation failed", zap.Error(err))
	} else if len(drifted) > 0 {
		log.Warn("balance drift detected", zap.Strings("user_ids", drifted))
	}

	publisher := events.NewPublisher(redis.Client)
	validator := validation.New(cfg.MinTransactionValue, cfg.MaxTransactionValue)

	// Command + Query services
	userCommands := command.NewUserCommandService(userWrites, userReads, publisher, log)
	txnCommands := command.NewTransactionCommandService(
		store, userWrites, txnWrites, txnReads, userReads, validator, publisher, log)
	userQueries := query.NewUserQueryService(userReads, cfg.Pagination)
	txnQueries := query.NewTransactionQueryService(txnReads, userReads, cfg.Pagination)

	userHandler := handler.NewUserHandler(userCommands, userQueries)
	txnHandler := handler.NewTransactionHandler(txnCommands, txnQueries)

	// Read-model projector: reacts to ledger events from other instances
	proj := projector.New(userReads, log)
	subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
		Group:    "ledger-projector",
		Consumer: "ledger-service",
		Stream:   events.LedgerEventsStream,
		Handler:  proj.HandleLedgerEvent,
	}, log)
	go func() {
		if err := subscriber.Start(context.Background()); err != nil {
			log.Error("subscriber stopped", zap.Error(err))
		}
	}()

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// User routes
	router.POST("/users", userHandler.CreateUser)
	router.GET("/users", userHandler.ListUsers)
	router.GET("/users/:userId", userHandler.GetUser)
	router.DELETE("/users/:userId", userHandler.DeactivateUser)

	// Transaction routes
	router.POST("/users/:userId/transactions", txnHandler.CreateTransaction)
	router.GET("/users/:userId/transactions", txnHandler.ListUserTransactions)
	router.GET("/users/:userId/transactions/:transactionId", txnHandler.GetUserTransaction)
	router.GET("/transactions", txnHandler.ListTransactions)
	router.GET("/transactions/:transactionId", txnHandler.GetTransaction)

	log.Info("ledger service starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
