package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barberapp/config"
	"barberapp/docs"
	"barberapp/internal/events"
	"barberapp/internal/reminder"
	"barberapp/internal/repository"
	"barberapp/internal/service"
	"barberapp/internal/storage"
	"barberapp/internal/transport/rest"
	"barberapp/internal/transport/websocket"
	"barberapp/pkg/auth"
	"barberapp/pkg/cache"
	"barberapp/pkg/database"
	"barberapp/pkg/logger"
	"barberapp/pkg/validator"
)

// @title Barber Booking API
// @version 1.0
// @description Barber discovery, slot booking and customer chat

// @BasePath /api

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig(ctx)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	docs.SwaggerInfo.BasePath = cfg.HTTP.BasePath
	docs.SwaggerInfo.Version = cfg.Version

	db, err := database.NewPostgresDB(ctx, cfg.Postgres, log)
	if err != nil {
		log.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer db.Close()

	log.Info("Запуск миграций базы данных")
	if err := database.RunMigrations(ctx, db, cfg.Postgres.MigrationsDir, log); err != nil {
		log.Fatal("Ошибка при выполнении миграций", zap.Error(err))
	}
	log.Info("Миграции успешно выполнены")

	var fileStorage storage.FileStorage
	if cfg.S3.Endpoint != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3, log)
		if err != nil {
			log.Fatal("Не удалось инициализировать S3 хранилище", zap.Error(err))
		}
		fileStorage = s3Storage
		log.Info("S3 хранилище успешно инициализировано", zap.String("endpoint", cfg.S3.Endpoint))
	} else {
		log.Warn("S3 хранилище не настроено, загрузка фото будет недоступна")
	}

	tokens, err := auth.NewTokenManager(cfg.JWT.SigningKey, cfg.JWT.Issuer)
	if err != nil {
		log.Fatal("Некорректная конфигурация JWT", zap.Error(err))
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()

	hub := websocket.NewHub(tokens, log)
	go hub.Run(hubCtx)

	sinks := []events.Sink{hub}

	var guard reminder.Guard
	if cfg.Redis.Enabled {
		redisClient, err := cache.Connect(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			log.Fatal("Не удалось подключиться к Redis", zap.Error(err))
		}
		defer redisClient.Close()

		sinks = append(sinks, events.NewRedisPublisher(redisClient, cfg.Redis.Channel))
		guard = cache.NewOnceGuard(redisClient, cfg.Name+":", 2*cfg.Reminder.Lookahead)
		log.Info("Redis подключен", zap.String("addr", cfg.Redis.Addr))
	}

	dispatcher := events.NewDispatcher(cfg.Events.QueueSize, log, sinks...)

	repos := repository.NewRepositories(db, cfg.Booking.LockTimeout)

	services := service.NewServices(service.Deps{
		Repos:       repos,
		Logger:      log,
		Config:      cfg,
		FileStorage: fileStorage,
		Events:      dispatcher,
	})

	var scheduler *reminder.Scheduler
	if cfg.Reminder.Enabled {
		scheduler = reminder.NewScheduler(repos.Appointment, guard, dispatcher, cfg.Reminder, log)
		if err := scheduler.Start(); err != nil {
			log.Fatal("Не удалось запустить планировщик напоминаний", zap.Error(err))
		}
	}

	if err := validator.RegisterGin(); err != nil {
		log.Fatal("Не удалось зарегистрировать валидаторы", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	handler := rest.NewHandler(services, tokens, hub.HandleWebSocket, db, log, cfg)
	handler.InitRoutes(router)

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderMB << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	log.Info("Сервер запущен", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Выключение сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ошибка при остановке сервера", zap.Error(err))
	}

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}

	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn("Не все события доставлены", zap.Error(err))
	}

	stopHub()

	log.Info("Сервер успешно остановлен")
}
