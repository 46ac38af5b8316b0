package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/org-chart-api/internal/config"
	"github.com/org-chart-api/internal/handler"
	"github.com/org-chart-api/internal/metrics"
	"github.com/org-chart-api/internal/migrations"
	"github.com/org-chart-api/internal/render"
	"github.com/org-chart-api/internal/repository"
	"github.com/org-chart-api/internal/seed"
	"github.com/org-chart-api/internal/service"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Инициализация логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg := config.Load()
	if err := cfg.Database.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Подключение к БД
	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("failed to get sql.DB", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Запуск миграций
	if err := migrations.Up(sqlDB, cfg.Database.Driver); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	empRepo := repository.NewEmployeeRepository(db)

	// Начальные данные загружаются только в пустую БД
	if cfg.Seed.File != "" {
		if err := applySeed(context.Background(), cfg.Seed.File, empRepo, logger); err != nil {
			logger.Error("failed to apply seed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	collector := metrics.NewCollector("orgchart")

	// Инициализация сервисов
	chartService := service.NewChartService(
		empRepo,
		render.NewSVGRenderer(),
		service.PersistManagerChange(empRepo),
		collector,
		logger,
	)
	empService := service.NewEmployeeService(empRepo, chartService)

	// Схема строится при старте; пустой или некорректный справочник не мешает запуску
	if _, err := chartService.Load(context.Background()); err != nil {
		logger.Warn("org chart is not available", slog.Any("error", err))
	}

	// Инициализация хендлеров
	empHandler := handler.NewEmployeeHandler(empService, chartService, logger)
	chartHandler := handler.NewChartHandler(chartService, logger)

	// Настройка роутера
	router := handler.NewRouter(empHandler, chartHandler, collector, logger)
	httpHandler := router.Setup()

	// Настройка HTTP сервера
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("could not gracefully shutdown the server", slog.Any("error", err))
		}
		close(done)
	}()

	logger.Info("server is starting", slog.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}

func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	if cfg.Driver == "sqlite" {
		return gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
	}

	var db *gorm.DB
	var err error

	for range 30 {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
		if err == nil {
			var sqlDB *sql.DB
			if sqlDB, err = db.DB(); err == nil {
				if err = sqlDB.Ping(); err == nil {
					return db, nil
				}
			}
		}
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("failed to connect to database after 30 attempts: %w", err)
}

func applySeed(ctx context.Context, path string, repo repository.EmployeeRepository, logger *slog.Logger) error {
	entries, err := seed.Load(path)
	if err != nil {
		return err
	}

	created, err := seed.Apply(ctx, repo, entries)
	if err != nil {
		return err
	}

	logger.Info("seed applied", slog.String("file", path), slog.Int("created", created))
	return nil
}
