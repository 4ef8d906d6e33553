package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"servicedesk/internal/httpapi"
	"servicedesk/internal/notify"
	"servicedesk/internal/parts"
	"servicedesk/internal/photos"
	"servicedesk/pkg/config"
	"servicedesk/pkg/db"
)

func main() {
	cfg := config.Load()

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}

	var dedupe *notify.Dedupe
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = rdb.Close() }()
		dedupe = notify.NewDedupe(rdb, 0)
	}

	var senders []notify.Sender
	if cfg.Notify.SMSGatewayURL != "" {
		senders = append(senders, notify.SMSGateway{
			BaseURL: cfg.Notify.SMSGatewayURL,
			Token:   cfg.Notify.SMSGatewayToken,
		})
	}
	if cfg.Notify.WhatsAppGatewayURL != "" {
		senders = append(senders, notify.WhatsAppGateway{
			BaseURL: cfg.Notify.WhatsAppGatewayURL,
			Token:   cfg.Notify.WhatsAppGatewayToken,
		})
	}
	if cfg.Notify.SMTPAddr != "" {
		senders = append(senders, notify.SMTPSender{
			Addr: cfg.Notify.SMTPAddr,
			From: cfg.Notify.SMTPFrom,
			User: cfg.Notify.SMTPUser,
			Pass: cfg.Notify.SMTPPass,
		})
	}
	dispatcher := notify.NewDispatcher(notify.NewRepository(conn), dedupe, logger, senders...)

	var photoStore *photos.ObjectStore
	if cfg.Photos.Endpoint != "" {
		photoStore, err = photos.NewObjectStore(ctx, cfg.Photos.Endpoint, cfg.Photos.AccessKey, cfg.Photos.SecretKey, cfg.Photos.Bucket, cfg.Photos.UseSSL)
		if err != nil {
			logger.Fatal("photo store", zap.Error(err))
		}
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:    cfg,
		DB:     conn,
		Log:    logger,
		Notify: dispatcher,
		Photos: photoStore,
	})

	var scheduler *cron.Cron
	if cfg.Notify.ReminderSchedule != "" {
		reminder := &parts.Reminder{
			Orders: parts.NewRepository(conn),
			Notify: dispatcher,
			Cfg:    cfg,
			Log:    logger,
		}
		scheduler = cron.New()
		if _, err := scheduler.AddJob(cfg.Notify.ReminderSchedule, reminder); err != nil {
			logger.Fatal("reminder schedule", zap.Error(err))
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.AppEnv == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
