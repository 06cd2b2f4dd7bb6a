package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bher20/copierbill/internal/alerting"
	"github.com/bher20/copierbill/internal/api"
	"github.com/bher20/copierbill/internal/auth"
	"github.com/bher20/copierbill/internal/config"
	"github.com/bher20/copierbill/internal/cron"
	"github.com/bher20/copierbill/internal/invoice"
	"github.com/bher20/copierbill/internal/metrics"
	"github.com/bher20/copierbill/internal/notification"
	"github.com/bher20/copierbill/internal/session"
	"github.com/bher20/copierbill/internal/storage"
)

const poolMetricsInterval = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the billing API, web UI and report scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, log)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	store, err := storage.Open(ctx, storageConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	sessions, readyChecks, closeSessions, err := openSessions(cfg, log)
	if err != nil {
		return err
	}
	defer closeSessions()

	authSvc, err := newAuthService(cfg, sessions)
	if err != nil {
		return err
	}

	notify := notification.NewService(store, emailFallback(cfg), log.Named("notification"))
	invoices := invoice.NewService(store, notify, log.Named("invoice"))

	if cfg.Report.Schedule != "" {
		job := &cron.ReportJob{
			Invoices:  invoices,
			Mailer:    notify,
			Recipient: cfg.Report.Recipient,
			Alerter:   alerting.NewAlerter(alerting.NewAlertConfig(cfg.Alert.WebhookURL, cfg.Alert.WebhookType), log.Named("alerting")),
			Log:       log.Named("report"),
		}
		if locker, ok := store.(storage.Locker); ok {
			job.Locker = locker
		}
		sched, err := cron.NewScheduler(cfg.Report.Schedule, job, log.Named("cron"))
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop(context.Background())
		log.Info("report scheduler started", zap.String("schedule", cfg.Report.Schedule), zap.Time("next", sched.Next()))
	}

	go reportPoolStats(ctx, store)

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(&api.Server{
			Store:       store,
			Invoices:    invoices,
			Auth:        authSvc,
			Notify:      notify,
			Log:         log.Named("http"),
			StrictInput: cfg.Billing.StrictInput,
			ReadyChecks: readyChecks,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("copierbill listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func storageConfig(cfg config.Config) storage.Config {
	return storage.Config{
		Driver:  cfg.Storage.Driver,
		DSN:     cfg.Storage.DSN,
		DataDir: cfg.Storage.DataDir,
	}
}

func openSessions(cfg config.Config, log *zap.Logger) (session.Store, []func(context.Context) error, func(), error) {
	if cfg.Session.Driver != "redis" {
		return session.NewMemoryStore(), nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := session.NewRedisStore(client)
	log.Info("sessions: using redis", zap.String("addr", cfg.Redis.Addr))
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("close redis client", zap.Error(err))
		}
	}
	return store, []func(context.Context) error{store.Ping}, closeFn, nil
}

func newAuthService(cfg config.Config, sessions session.Store) (*auth.Service, error) {
	ttl, err := auth.ParseSessionTTL(cfg.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}
	opts := auth.Options{
		Disabled:     cfg.Auth.Disabled,
		PasswordHash: cfg.Auth.PasswordHash,
		SessionTTL:   ttl,
	}
	if opts.PasswordHash == "" && cfg.Auth.Password != "" {
		if opts.PasswordHash, err = auth.HashPassword(cfg.Auth.Password); err != nil {
			return nil, err
		}
	}
	if cfg.Auth.ViewerPassword != "" {
		if opts.ViewerPasswordHash, err = auth.HashPassword(cfg.Auth.ViewerPassword); err != nil {
			return nil, err
		}
	}
	return auth.NewService(opts, sessions)
}

// emailFallback turns the email settings from config into the default
// delivery configuration, used until one is saved through the API.
func emailFallback(cfg config.Config) *storage.EmailConfig {
	e := cfg.Email
	if e.Provider == "" {
		return nil
	}
	return &storage.EmailConfig{
		ID:          "config",
		Provider:    e.Provider,
		Host:        e.Host,
		Port:        e.Port,
		Username:    e.Username,
		Password:    e.Password,
		FromAddress: e.FromAddress,
		FromName:    e.FromName,
		APIKey:      e.APIKey,
		Encryption:  e.Encryption,
		Enabled:     true,
	}
}

type poolStatter interface {
	PoolStats() (string, sql.DBStats, error)
}

func reportPoolStats(ctx context.Context, store storage.Storage) {
	ps, ok := store.(poolStatter)
	if !ok {
		return
	}
	ticker := time.NewTicker(poolMetricsInterval)
	defer ticker.Stop()
	for {
		if driver, st, err := ps.PoolStats(); err == nil {
			metrics.UpdateDBPoolMetrics(driver, st.OpenConnections, st.Idle, st.InUse, st.WaitCount)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
