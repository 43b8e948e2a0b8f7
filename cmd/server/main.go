package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ogurasousui/hr-records-api/internal/adapters/http/handler"
	"github.com/ogurasousui/hr-records-api/internal/adapters/objectstore"
	"github.com/ogurasousui/hr-records-api/internal/adapters/repository/postgres"
	"github.com/ogurasousui/hr-records-api/internal/core/auth"
	"github.com/ogurasousui/hr-records-api/internal/core/department"
	"github.com/ogurasousui/hr-records-api/internal/core/employee"
	"github.com/ogurasousui/hr-records-api/internal/core/position"
	"github.com/ogurasousui/hr-records-api/internal/core/status"
	"github.com/ogurasousui/hr-records-api/internal/platform/config"
	pg "github.com/ogurasousui/hr-records-api/internal/platform/db/postgres"
	"github.com/ogurasousui/hr-records-api/internal/platform/logger"
	"github.com/ogurasousui/hr-records-api/internal/platform/server"
)

const (
	dbPingAttempts = 5
	dbPingBackoff  = 500 * time.Millisecond
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) error {
	dbPool, err := pg.NewPool(ctx, cfg.Database, pg.WithLogger(zlog), pg.WithPingRetry(dbPingAttempts, dbPingBackoff))
	if err != nil {
		return err
	}
	defer dbPool.Close()

	store, err := objectstore.New(ctx, cfg.Storage, zlog)
	if err != nil {
		return err
	}

	txManager := pg.NewTransactionManager(dbPool)
	refs := postgres.NewReferenceRepository(dbPool)

	authSvc := auth.NewService(postgres.NewAuthRepository(dbPool), nil, txManager)
	statusSvc := status.NewService(postgres.NewStatusRepository(dbPool), txManager)
	positionSvc := position.NewService(postgres.NewPositionRepository(dbPool), txManager)
	departmentSvc := department.NewService(postgres.NewDepartmentRepository(dbPool), refs, txManager)
	employeeSvc := employee.NewService(postgres.NewEmployeeRepository(dbPool), refs, store, txManager,
		employee.WithImageNamespace(cfg.Storage.Namespace))

	handlers := server.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Health:      handler.NewHealthHandler(dbPool),
		Statuses:    handler.NewStatusHandler(statusSvc),
		Positions:   handler.NewPositionHandler(positionSvc),
		Departments: handler.NewDepartmentHandler(departmentSvc),
		Employees:   handler.NewEmployeeHandler(employeeSvc, store, cfg.Storage.MaxImageBytes),
	}
	if local, ok := store.(*objectstore.LocalStore); ok {
		handlers.Media = local.Handler()
		handlers.MediaPath = local.MountPath()
	}

	router := server.NewRouter(server.RouterOptions{
		Logger:             zlog,
		Tokens:             authSvc,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}, handlers)

	httpServer := server.New(cfg.Server.ListenAddr, router, server.Options{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	zlog.Info("HTTP server listening", zap.String("addr", cfg.Server.ListenAddr))
	return httpServer.Run(ctx)
}
