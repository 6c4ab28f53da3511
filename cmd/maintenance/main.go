package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mealdash/notification-gateway/internal/analytics"
	"github.com/mealdash/notification-gateway/internal/config"
	"github.com/mealdash/notification-gateway/internal/provider"
	"github.com/mealdash/notification-gateway/internal/repository"
	"github.com/mealdash/notification-gateway/internal/tokens"
	"github.com/mealdash/notification-gateway/pkg/logger"
	"github.com/mealdash/notification-gateway/pkg/pg"
	"github.com/mealdash/notification-gateway/pkg/prom"
	"github.com/robfig/cron/v3"
)

// The maintenance binary runs the token and analytics retention sweep on a
// cron schedule: validate stale tokens, revoke dead ones, garbage-collect
// revoked tokens and old notification records.
func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

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

	db, err := pg.CreateReadWrite(readConf, writeConf, false)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	if config.Get().PromNamespace != "" {
		if err := prom.Create(config.Get().AppName, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
			logger.Error("failed to register metrics", "error", err)
		}
	}

	tokenRepo := repository.NewPushTokenRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	recorder := analytics.NewRecorder(notificationRepo)

	validator := buildValidator()
	if validator == nil {
		logger.Warn("no push provider configured, stale tokens will not be validated")
	}

	manager := tokens.NewManager(tokenRepo, validator, time.Duration(config.Get().TokenStalenessDays)*24*time.Hour)
	sweeper := tokens.NewSweeper(manager, recorder, tokens.SweepConfig{
		BatchSize:            config.Get().MaintenanceBatchSize,
		Workers:              config.Get().MaintenanceWorkers,
		RevokedRetentionDays: config.Get().TokenRevokedRetentionDays,
		RecordRetentionDays:  config.Get().RecordRetentionDays,
	})

	c := cron.New()
	_, err = c.AddFunc(config.Get().MaintenanceSchedule, func() {
		if _, err := sweeper.Run(context.Background()); err != nil {
			logger.Error("maintenance sweep failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid maintenance schedule", "schedule", config.Get().MaintenanceSchedule, "error", err)
		return
	}

	logger.Info("maintenance scheduler started", "schedule", config.Get().MaintenanceSchedule)
	c.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx := c.Stop()
	<-ctx.Done()
	logger.Info("maintenance scheduler stopped")
}

func buildValidator() provider.TokenValidator {
	cfg := config.Get()
	if cfg.FCMCredentialsFile != "" {
		sender, err := provider.NewFCMSender(context.Background(), provider.FCMConfig{
			CredentialsPath: cfg.FCMCredentialsFile,
			ProjectID:       cfg.FCMProjectID,
		})
		if err != nil {
			logger.Error("failed to initialize fcm, continuing without validator", "error", err)
			return nil
		}
		return sender
	}
	if cfg.PushRelayURL != "" {
		return provider.NewHTTPPushSender(cfg.PushRelayURL, cfg.PushRelayTimeout)
	}
	return nil
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
