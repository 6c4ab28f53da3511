package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mealdash/notification-gateway/internal/analytics"
	"github.com/mealdash/notification-gateway/internal/config"
	"github.com/mealdash/notification-gateway/internal/dedup"
	"github.com/mealdash/notification-gateway/internal/handlers"
	"github.com/mealdash/notification-gateway/internal/notify"
	"github.com/mealdash/notification-gateway/internal/provider"
	"github.com/mealdash/notification-gateway/internal/recipients"
	"github.com/mealdash/notification-gateway/internal/repository"
	"github.com/mealdash/notification-gateway/internal/services"
	"github.com/mealdash/notification-gateway/internal/tokens"
	xhttp "github.com/mealdash/notification-gateway/pkg/http"
	"github.com/mealdash/notification-gateway/pkg/logger"
	"github.com/mealdash/notification-gateway/pkg/pg"
	"github.com/mealdash/notification-gateway/pkg/prom"
	"github.com/mealdash/notification-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	if config.Get().PromNamespace != "" {
		if err := prom.Create(config.Get().AppName, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
			logger.Error("failed to register metrics", "error", err)
		}
		if addr := config.Get().AppDebugMetricsAddr; addr != "" {
			go prom.ListenAndServer(addr, config.Get().AppDebugMetricsURI)
		}
	}

	// Duplicate suppression: distributed gate when Redis is configured,
	// process-local otherwise.
	var gate dedup.Gate
	if config.Get().RedisAddr != "" {
		redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{config.Get().RedisAddr},
			ClientName: "default",
			DB:         config.Get().RedisDatabase,
			Username:   config.Get().RedisUsername,
			Password:   config.Get().RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		gate = dedup.NewRedisGate(redisAdap, config.Get().DedupTTL)
	} else {
		logger.Warn("no redis configured, using process-local dedup gate")
		gate = dedup.NewLocalGate(config.Get().DedupTTL)
	}

	pushSender, err := buildPushSender()
	if err != nil {
		logger.Error("failed to initialize push provider", "error", err)
		return
	}

	tokenRepo := repository.NewPushTokenRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	deliveryOrderRepo := repository.NewDeliveryOrderRepository(db)
	cateringOrderRepo := repository.NewCateringOrderRepository(db)

	// services
	validator, _ := pushSender.(provider.TokenValidator)
	tokenManager := tokens.NewManager(tokenRepo, validator, time.Duration(config.Get().TokenStalenessDays)*24*time.Hour)
	recorder := analytics.NewRecorder(notificationRepo)
	resolver := recipients.NewResolver(deliveryOrderRepo, cateringOrderRepo, profileRepo)

	emailSender := provider.NewSMTPSender(provider.SMTPConfig{
		Host:     config.Get().SMTPHost,
		Port:     config.Get().SMTPPort,
		Username: config.Get().SMTPUsername,
		Password: config.Get().SMTPPassword,
	})

	pushDispatcher := notify.NewPushDispatcher(pushSender, tokenRepo, tokenManager)
	emailDispatcher := notify.NewEmailDispatcherWithPolicy(
		emailSender, notify.StaticRenderer{}, config.Get().EmailFrom,
		config.Get().EmailMaxAttempts, config.Get().EmailBaseDelay)

	notifyService := notify.NewService(resolver, gate, pushDispatcher, emailDispatcher, recorder)
	healthService := services.NewHealthService()

	// v1 handlers
	notificationHandler := handlers.NewNotificationHandler(notifyService, recorder)
	tokenHandler := handlers.NewTokenHandler(tokenManager)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterNotificationRoutes(g, notificationHandler)
	handlers.RegisterTokenRoutes(g, tokenHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

// buildPushSender prefers FCM when credentials exist and falls back to the
// HTTP relay. Both implement PushSender and TokenValidator.
func buildPushSender() (provider.PushSender, error) {
	cfg := config.Get()
	if cfg.FCMCredentialsFile != "" {
		return provider.NewFCMSender(context.Background(), provider.FCMConfig{
			CredentialsPath: cfg.FCMCredentialsFile,
			ProjectID:       cfg.FCMProjectID,
		})
	}
	if cfg.PushRelayURL != "" {
		return provider.NewHTTPPushSender(cfg.PushRelayURL, cfg.PushRelayTimeout), nil
	}
	return nil, errors.New("no push provider configured: set FCM_CREDENTIALS_FILE or PUSH_RELAY_URL")
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
