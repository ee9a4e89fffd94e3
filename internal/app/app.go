package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/middleware"
	"taskhub/internal/realtime"
	"taskhub/internal/repositories"
	"taskhub/internal/routes"
	"taskhub/internal/services"
)

// App holds the wired server and the resources it owns.
type App struct {
	cfg    *config.Config
	db     *sqlx.DB
	rdb    *redis.Client
	relay  *realtime.RedisRelay
	Router *gin.Engine
	Tokens *services.TokenService
}

// ConfigureLogging applies the log section to the global logrus logger.
func ConfigureLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if level < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	return nil
}

// OpenDB opens the configured database and applies pending migrations.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := repositories.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := repositories.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// New wires repositories, services, handlers and routes on top of db.
func New(cfg *config.Config, db *sqlx.DB) (*App, error) {
	a := &App{cfg: cfg, db: db}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// === Realtime ===
	registry := realtime.NewRegistry()
	var pusher services.Pusher = registry
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis.url: %w", err)
		}
		a.rdb = redis.NewClient(opts)
		a.relay = realtime.NewRedisRelay(a.rdb, cfg.Redis.Channel, registry)
		pusher = a.relay
		log.Infof("[app] live events relayed through redis channel=%s", cfg.Redis.Channel)
	}

	// === Services ===
	a.Tokens = services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	authService := services.NewAuthService(userRepo, a.Tokens)
	notificationService := services.NewNotificationService(notificationRepo)
	taskService := services.NewTaskService(taskRepo, notificationService, pusher)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	socketHandler := handlers.NewSocketHandler(a.Tokens, registry, cfg.Realtime.SendBuffer, cfg.Realtime.WriteTimeout)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.GET("/healthz", a.health)

	routes.SetupRoutes(router, a.Tokens, authHandler, taskHandler, notificationHandler, socketHandler)
	a.Router = router
	return a, nil
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		log.Warnf("[health] db ping failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.relay != nil {
		go a.relay.Run(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Infof("Сервер запущен на %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("[app] shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the resources owned by the app.
func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Warnf("[app] closing redis: %v", err)
		}
	}
	if err := a.db.Close(); err != nil {
		log.Warnf("[app] closing db: %v", err)
	}
}
