package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/orgpay/payment-server/internal/api"
	"github.com/orgpay/payment-server/internal/audit"
	"github.com/orgpay/payment-server/internal/auth"
	"github.com/orgpay/payment-server/internal/config"
	"github.com/orgpay/payment-server/internal/pool"
	"github.com/orgpay/payment-server/internal/repository"
	"github.com/orgpay/payment-server/internal/service"
)

func main() {
	// .env is optional; real environments set the variables directly
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load configuration
	cfg := config.LoadConfig()

	// Set up database connection and bootstrap the schema
	db, err := config.SetupDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up database", zap.Error(err))
	}
	defer db.Close()

	// Open the fixed connection pool; failing to fill it is fatal
	connPool, err := pool.New(context.Background(), db, cfg.Database.PoolSize, logger)
	if err != nil {
		logger.Fatal("failed to initialize connection pool", zap.Error(err))
	}
	defer connPool.ShutdownAll()

	// Create repositories
	paymentRepo := repository.NewPaymentRepository(connPool)
	userRepo := repository.NewUserRepository(connPool)
	teamRepo := repository.NewTeamRepository(connPool)
	categoryRepo := repository.NewCategoryRepository(connPool)
	statusRepo := repository.NewStatusRepository(connPool)
	auditRepo := repository.NewAuditTrailRepository(connPool)

	// Audit writes run detached from the operations that trigger them
	auditSvc := audit.NewService(auditRepo, cfg.Workers.AuditWorkers, cfg.Workers.AuditQueueSize, logger)
	defer auditSvc.Close()

	// Create services
	workers := service.NewWorkerPool(cfg.Workers.PaymentWorkers)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authSvc := service.NewAuthService(userRepo, tokens)
	paymentSvc := service.NewPaymentService(paymentRepo, statusRepo, categoryRepo, auditSvc, workers, logger)
	userSvc := service.NewUserService(userRepo, teamRepo)
	salarySvc := service.NewSalaryService(userRepo, paymentRepo, categoryRepo, statusRepo, auditSvc, logger)

	// Monthly salary schedule
	cronSvc := service.NewCronService(salarySvc, logger)
	cronSvc.Start()
	defer cronSvc.Stop()

	// Set up Gin router
	router := gin.Default()
	handler := api.NewHandler(authSvc, paymentSvc, userSvc, salarySvc)
	handler.SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop accepting requests, let in-flight payment
	// operations and audit writes drain, then release the pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}

	workers.Wait()
	logger.Info("server stopped")
}
