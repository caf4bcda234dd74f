package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	api "stockledger-backend/internal/api/grpc"
	"stockledger-backend/internal/api/grpc/interceptor"
	httpapi "stockledger-backend/internal/api/http"
	"stockledger-backend/internal/config"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/notifier"
	"stockledger-backend/internal/repository/postgres"
	"stockledger-backend/internal/security"
	"stockledger-backend/internal/service"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Stock Ledger Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_port", cfg.Server.HTTPPort)
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			logger.Error("Failed to ensure schema", "error", err)
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		logger.Info("Database schema ensured")
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Notifier
	thresholdNotifier, closeNotifier, err := notifier.FromConfig(ctx, cfg.Notifier, store.StockAlertRepository)
	if err != nil {
		logger.Error("Failed to initialize notifier", "error", err)
		log.Fatalf("Failed to initialize notifier: %v", err)
	}
	defer closeNotifier()

	// Initialize Services
	dispatcher := service.NewAsyncDispatcher(cfg.Ledger.NotifyTimeout())
	allocationSvc := service.NewAllocationService(
		store,
		store.ItemRepository,
		thresholdNotifier,
		service.WithDispatcher(dispatcher),
	)
	querySvc := service.NewAllocationQueryService(store.AllocationRepository)
	alertSvc := service.NewStockAlertService(store.StockAlertRepository)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)

	// Set up gRPC server
	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.Logging(),
			authInterceptor.Unary(),
		),
	)

	// Register services
	api.RegisterAllocationServiceServer(s, api.NewAllocationHandler(allocationSvc, querySvc))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(s, healthSrv)
	healthSrv.SetServingStatus(api.AllocationServiceName, healthpb.HealthCheckResponse_SERVING)

	// Register reflection service for grpcurl
	reflection.Register(s)

	// Set up HTTP server
	var httpServer *http.Server
	if cfg.Server.HTTPPort != 0 {
		router := mux.NewRouter()
		httpapi.RegisterRoutes(router,
			httpapi.NewAllocationHandler(allocationSvc, querySvc, alertSvc),
			httpapi.NewAuthMiddleware(tokenManager),
			db.PingContext,
		)
		httpServer = &http.Server{
			Addr:              cfg.GetHTTPAddress(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Start HTTP server in a goroutine
		go func() {
			logger.Info("HTTP server listening", "address", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
		if err := s.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down...")
	healthSrv.Shutdown()
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		cancel()
	}
	s.GracefulStop()

	// Let in-flight threshold checks finish before the database closes.
	dispatcher.Wait()
	logger.Info("Server stopped. Goodbye!")
}
