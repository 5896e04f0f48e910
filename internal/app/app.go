// Package app wires the relay's components into an HTTP handler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sphere-social/sphere/internal/auth"
	"github.com/sphere-social/sphere/internal/config"
	"github.com/sphere-social/sphere/internal/events"
	"github.com/sphere-social/sphere/internal/handlers"
	"github.com/sphere-social/sphere/internal/messaging"
	"github.com/sphere-social/sphere/internal/metrics"
	"github.com/sphere-social/sphere/internal/middleware"
	"github.com/sphere-social/sphere/internal/monitors"
	"github.com/sphere-social/sphere/internal/notify"
	"github.com/sphere-social/sphere/internal/ratelimit"
	"github.com/sphere-social/sphere/internal/realtime"
	"github.com/sphere-social/sphere/internal/repository"
	"github.com/sphere-social/sphere/internal/router"
	"github.com/sphere-social/sphere/internal/scheduler"
	"gorm.io/gorm"
)

type App struct {
	Engine   *gin.Engine
	Registry *realtime.Registry
	Messages *messaging.Service
	Notifier *notify.Emitter
	Tokens   *auth.Manager
	Health   *scheduler.Scheduler

	closers []func() error
}

// New builds the application. Redis and Kafka are used only when configured.
func New(ctx context.Context, cfg config.Config, conn *gorm.DB, log *slog.Logger) (*App, error) {
	a := &App{}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	a.Tokens = tokens

	a.Registry = realtime.NewRegistry(log.With("component", "registry"), m)

	var (
		push    realtime.Broadcaster = a.Registry
		limiter messaging.Limiter
		checks  = []monitors.Check{monitors.Database(conn)}
	)

	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		a.closers = append(a.closers, rdb.Close)
		checks = append(checks, monitors.Redis(rdb))

		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}

		bridge := realtime.NewRedisBroadcaster(rdb, cfg.RedisChannel, a.Registry, log.With("component", "bridge"))
		if err := bridge.Start(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, bridge.Close)
		push = bridge

		if cfg.SendRateLimit > 0 {
			limiter = ratelimit.New(rdb, "send", cfg.SendRateLimit, cfg.SendRateWindow)
		}

		log.Info("redis enabled", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.KafkaEnabled() {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.closers = append(a.closers, kp.Close)
		publisher = kp
		log.Info("kafka enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	a.Health = scheduler.New(cfg.HealthCheckInterval, m, log.With("component", "scheduler"), checks...)
	a.Health.Start(ctx)
	a.closers = append(a.closers, a.Health.Stop)

	users := repository.NewUsers(conn)
	posts := repository.NewPosts(conn)
	notifications := repository.NewNotifications(conn)

	a.Messages = messaging.NewService(repository.NewMessages(conn), push, log.With("component", "messaging"), messaging.Options{
		MaxLength: cfg.MaxMessageLength,
		Limiter:   limiter,
		Publisher: publisher,
		Metrics:   m,
	})

	a.Notifier = notify.NewEmitter(notifications, posts, push, publisher, m, log.With("component", "notify"))

	wsLog := log.With("component", "ws")

	a.Engine = router.NewRouter(router.Deps{
		Origins:       cfg.Origins(),
		Log:           log.With("component", "http"),
		Auth:          middleware.AuthMiddleware(tokens, users, log),
		Health:        handlers.HealthCheck(a.Registry, a.Health),
		Metrics:       promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		Users:         handlers.NewAuthHandler(users, tokens, a.Notifier, log),
		Messages:      handlers.NewMessageHandler(a.Messages, log),
		Notifications: handlers.NewNotificationHandler(notifications, a.Notifier, log),
		Posts:         handlers.NewPostHandler(posts, a.Notifier, log),
		Follows:       handlers.NewUserHandler(users, a.Notifier, log),
		WS:            handlers.NewWSHandler(tokens, a.Registry, a.Messages, cfg.Origins(), cfg.SendBuffer, m, wsLog),
	})

	return a, nil
}

// Close releases external connections in reverse order of creation.
func (a *App) Close() error {
	var errList []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	a.closers = nil
	return errors.Join(errList...)
}
