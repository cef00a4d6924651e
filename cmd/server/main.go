package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quest-server/internal/config"
	"quest-server/internal/encounters"
	"quest-server/internal/expr"
	"quest-server/internal/handler"
	"quest-server/internal/interpreter"
	"quest-server/internal/messaging"
	"quest-server/internal/repository"
	"quest-server/internal/service"
	"quest-server/pkg/database"
	"quest-server/pkg/migration"
	"quest-server/shared/authutils"
	sharedLogger "quest-server/shared/logger"
	sharedMiddleware "quest-server/shared/middleware"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	log.Println("Запуск Quest Server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer logger.Sync()
	cfg.Log(logger)

	ctx := context.Background()

	dbPool, err := database.NewPool(ctx, database.Config{
		DSN:         cfg.GetDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer dbPool.Close()
	logger.Info("Успешное подключение к PostgreSQL")

	if cfg.RunMigrations {
		migrator := migration.NewMigrator(migration.Config{
			FS:   repository.MigrationsFS,
			Path: repository.MigrationsPath,
		}, dbPool)
		if err := migrator.Up(); err != nil {
			logger.Fatal("Не удалось применить миграции", zap.Error(err))
		}
	}

	redisClient, err := connectRedis(ctx, cfg)
	if err != nil {
		logger.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Успешное подключение к Redis", zap.String("addr", cfg.RedisAddr))

	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()
	logger.Info("Успешное подключение к RabbitMQ")

	publisher, err := messaging.NewRabbitMQQuestEventPublisher(rabbitConn, cfg.QuestEventsQueue, logger)
	if err != nil {
		logger.Fatal("Не удалось создать QuestEventPublisher", zap.Error(err))
	}

	table, err := encounters.Load(cfg.EncountersFile)
	if err != nil {
		logger.Fatal("Не удалось загрузить таблицу противников", zap.String("path", cfg.EncountersFile), zap.Error(err))
	}
	logger.Info("Encounter table loaded", zap.Int("encounters", table.Len()))

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, logger)
	if err != nil {
		logger.Fatal("Не удалось создать JWT verifier", zap.Error(err))
	}

	in := interpreter.New(expr.NewLuaEngine(), table)
	questRepo := repository.NewPgQuestRepository(dbPool, logger)
	playStore := repository.NewRedisPlaythroughStore(redisClient, cfg.PlaythroughTTL, logger)

	questService := service.NewQuestService(questRepo, publisher, in, logger)
	playService := service.NewPlayService(questService, playStore, in, logger)
	questHandler := handler.NewQuestHandler(questService, playService, verifier.VerifyToken, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(sharedMiddleware.EchoZapLogger(logger, "/health", "/metrics"))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	questHandler.RegisterRoutes(e)

	go func() {
		logger.Info("Quest сервер слушает", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска HTTP сервера", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Получен сигнал завершения, начинаем graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при graceful shutdown Echo", zap.Error(err))
	}

	logger.Info("Quest Server успешно остановлен")
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
