package app

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-tenantops/internal/accrual"
	"go-tenantops/internal/balance"
	"go-tenantops/internal/billing"
	"go-tenantops/internal/billing/gateway"
	"go-tenantops/internal/employee"
	"go-tenantops/internal/leavetype"
	"go-tenantops/internal/messaging/kafka"
	"go-tenantops/internal/notify"
	"go-tenantops/internal/shared/batchlock"
	"go-tenantops/internal/shared/connection"
	"go-tenantops/internal/tenant"

	"go.uber.org/zap"
)

// RunScheduler hosts the time-driven jobs: due payment retries, monthly
// accrual, and year-end carry-forward. Batch runs are guarded with a
// redis lease so two scheduler instances never double-credit or
// double-charge.
func RunScheduler() error {
	logger := zap.L().Named("app.scheduler")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var lock *batchlock.Lock
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb, err := connection.ConnectRedisWithRetry(addr, 5)
		if err != nil {
			return err
		}
		defer rdb.Close()
		lock = batchlock.New(rdb, 10*time.Minute, logger)
	}

	var notifier notify.Notifier = notify.NewNoopNotifier()
	if os.Getenv("KAFKA_BROKER") != "" {
		notifier = notify.NewOutboxNotifier(kafka.NewOutboxRepository(sqlDB), logger)
	}

	tenantRepo := tenant.NewRepository(gormDB)
	charger := gateway.NewClient(gateway.Config{
		BaseURL:        os.Getenv("PAYMENT_GATEWAY_URL"),
		MerchantID:     os.Getenv("PAYMENT_GATEWAY_MERCHANT_ID"),
		SecretKey:      os.Getenv("PAYMENT_GATEWAY_SECRET"),
		RequestsPerSec: envFloat("PAYMENT_GATEWAY_RPS", 5),
	}, logger)

	billingScheduler := billing.NewScheduler(
		sqlDB,
		billing.NewRepository(sqlDB),
		tenantRepo,
		charger,
		notifier,
		lock,
		logger,
	)

	accrualService := accrual.NewService(
		sqlDB,
		balance.NewRepository(sqlDB),
		leavetype.NewRepository(gormDB),
		employee.NewRepository(gormDB),
		lock,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runRetryLoop(ctx, billingScheduler, logger)
	go runAccrualLoop(ctx, accrualService, tenantRepo, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("scheduler shutting down")
	cancel()

	return nil
}

func runRetryLoop(ctx context.Context, scheduler billing.Scheduler, logger *zap.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	logger.Info("retry loop started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("retry loop stopped")
			return
		case <-ticker.C:
			if _, err := scheduler.ExecuteDueRetries(ctx, time.Now()); err != nil {
				logger.Error("retry batch failed", zap.Error(err))
			}
		}
	}
}

// runAccrualLoop fires accrual for every active tenant once a day; the
// per-row month arithmetic keeps re-runs idempotent. Carry-forward is
// triggered in January for the year that just ended.
func runAccrualLoop(ctx context.Context, service accrual.Service, tenants tenant.Repository, logger *zap.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	logger.Info("accrual loop started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("accrual loop stopped")
			return
		case <-ticker.C:
			now := time.Now()
			active, err := tenants.FindAllActive(ctx)
			if err != nil {
				logger.Error("tenant list failed", zap.Error(err))
				continue
			}
			for i := range active {
				tenantID := active[i].ID.String()
				if _, err := service.AccrueAll(ctx, tenantID, now); err != nil {
					logger.Error("accrual run failed",
						zap.String("tenant_id", tenantID),
						zap.Error(err),
					)
				}
				if now.Month() == time.January {
					if _, err := service.CarryForward(ctx, tenantID, now.Year()-1); err != nil {
						logger.Error("carry-forward run failed",
							zap.String("tenant_id", tenantID),
							zap.Error(err),
						)
					}
				}
			}
		}
	}
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
