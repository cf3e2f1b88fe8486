package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/ai-todo/internal/config"
	"github.com/yukikurage/ai-todo/internal/constants"
	"github.com/yukikurage/ai-todo/internal/database"
	"github.com/yukikurage/ai-todo/internal/handlers"
	"github.com/yukikurage/ai-todo/internal/logger"
	"github.com/yukikurage/ai-todo/internal/notify"
	"github.com/yukikurage/ai-todo/internal/repository"
	"github.com/yukikurage/ai-todo/internal/scheduler"
	"github.com/yukikurage/ai-todo/internal/services"
	"github.com/yukikurage/ai-todo/internal/utils"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	taskRepo, userRepo, err := openRepositories(cfg.Storage, log)
	if err != nil {
		return err
	}

	authService, err := services.NewAuthService(userRepo, services.AuthOptions{
		Cost:              cfg.Auth.BcryptCost,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	}, log)
	if err != nil {
		return err
	}

	sched := scheduler.New(reminderSink(cfg.Telegram, log), scheduler.Options{
		LeadTime:      cfg.Reminder.LeadTime,
		NotifyTimeout: cfg.Reminder.NotifyTimeout,
		Logger:        log,
	})

	// Initialize AI service
	var describer services.DescriptionProvider
	if cfg.LLM.Enabled() {
		describer = services.NewAIService(services.AIConfig{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MinInterval: cfg.LLM.MinInterval,
			Burst:       cfg.LLM.MaxBurst,
		})
	} else {
		log.Info("LLM API key not set, AI descriptions disabled")
	}

	taskService, err := services.NewTaskService(taskRepo, authService, sched, describer, services.TaskServiceOptions{
		DescriptionTimeout: cfg.LLM.Timeout,
		Logger:             log,
	})
	if err != nil {
		return err
	}

	taskService.RestoreReminders()
	sched.Start()
	defer sched.Stop()

	// Set Gin mode
	gin.SetMode(cfg.HTTP.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())

	store, err := sessionStore(cfg.HTTP, log)
	if err != nil {
		return err
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(
		r.Group("/api"),
		handlers.NewAuthHandler(authService),
		handlers.NewTaskHandler(taskService, sched),
	)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRepositories(cfg config.Storage, log *zap.Logger) (repository.TaskRepository, repository.UserRepository, error) {
	if cfg.Driver == "csv" {
		log.Info("using CSV storage", zap.String("data_dir", cfg.DataDir))
		return repository.NewCSVTaskRepository(cfg.TasksFile()), repository.NewCSVUserRepository(cfg.UsersFile()), nil
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewGormTaskRepository(db), repository.NewGormUserRepository(db), nil
}

func reminderSink(cfg config.Telegram, log *zap.Logger) notify.Sink {
	sinks := notify.Multi{notify.NewLogSink(log)}
	if !cfg.Enabled() {
		return sinks
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		log.Warn("telegram reminders disabled", zap.Error(err))
		return sinks
	}
	log.Info("telegram reminders enabled", zap.String("bot", bot.Self.UserName))
	return append(sinks, notify.NewTelegramSink(bot, cfg.ChatID))
}

func sessionStore(cfg config.HTTP, log *zap.Logger) (sessions.Store, error) {
	secret := cfg.SessionSecret
	if secret == "" {
		generated, err := utils.GenerateSecret(32)
		if err != nil {
			return nil, err
		}
		secret = generated
		log.Warn("TODO_HTTP_SESSION_SECRET not set, sessions will not survive a restart")
	}

	var store sessions.Store
	if cfg.SessionStore == "redis" {
		rs, err := redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			cfg.RedisAddress,
			cfg.RedisPassword,
			[]byte(secret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(secret))
	}

	// Configure session options based on environment
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
