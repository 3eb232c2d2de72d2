package billing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	billingerrors "go-tenantops/internal/billing/errors"
	"go-tenantops/internal/billing/gateway"
	"go-tenantops/internal/events"
	"go-tenantops/internal/notify"
	"go-tenantops/internal/shared/batchlock"
	"go-tenantops/internal/tenant"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunSummary reports one execute-due-retries batch.
type RunSummary struct {
	Claimed   int
	Charged   int
	Failed    int
	Suspended int
	Skipped   int
}

// Scheduler orchestrates payment retries. A retry row is claimed with a
// conditional pending->executing update before the gateway is called;
// a gateway error marks the row failed and, when it was the last
// pending retry, escalates to suspension. Gateway errors never abort
// the rest of the batch.
//
//go:generate mockgen -source=billing_service.go -destination=mock/billing_service_mock.go -package=mock
type Scheduler interface {
	// ScheduleRetries creates the retry cadence for a failed payment
	// and moves the subscription into retrying.
	ScheduleRetries(ctx context.Context, subscriptionID, paymentOrderID, reason string) ([]PaymentRetrySchedule, error)

	// ExecuteDueRetries charges every due pending retry.
	ExecuteDueRetries(ctx context.Context, now time.Time) (*RunSummary, error)

	// CancelPendingRetries stops all further retries for the
	// subscription, recording why.
	CancelPendingRetries(ctx context.Context, subscriptionID, reason string) (int64, error)

	// HandlePaymentSucceeded is the webhook-driven recovery path: the
	// matching retry row succeeds, remaining retries are cancelled and
	// the subscription returns to current.
	HandlePaymentSucceeded(ctx context.Context, subscriptionID, gatewayOrderID string) error

	// SuspendSubscription is the terminal escalation: subscription and
	// owning tenant are deactivated. No automatic reactivation exists.
	SuspendSubscription(ctx context.Context, subscriptionID string) error
}

type scheduler struct {
	db       *sql.DB
	repo     Repository
	tenants  tenant.Repository
	charger  gateway.Charger
	notifier notify.Notifier
	lock     *batchlock.Lock
	logger   *zap.Logger
	now      func() time.Time
}

func NewScheduler(
	db *sql.DB,
	repo Repository,
	tenants tenant.Repository,
	charger gateway.Charger,
	notifier notify.Notifier,
	lock *batchlock.Lock,
	logger ...*zap.Logger,
) Scheduler {
	l := zap.L().Named("billing.scheduler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("billing.scheduler")
	}
	if notifier == nil {
		notifier = notify.NewNoopNotifier()
	}
	return &scheduler{
		db:       db,
		repo:     repo,
		tenants:  tenants,
		charger:  charger,
		notifier: notifier,
		lock:     lock,
		logger:   l,
		now:      time.Now,
	}
}

func (s *scheduler) ScheduleRetries(ctx context.Context, subscriptionID, paymentOrderID, reason string) ([]PaymentRetrySchedule, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	sub, err := s.lockSubscription(ctx, qtx, subscriptionID)
	if err != nil {
		return nil, err
	}

	orderID, err := uuid.Parse(paymentOrderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rows := make([]PaymentRetrySchedule, 0, len(RetryOffsets))
	for i, offset := range RetryOffsets {
		rows = append(rows, PaymentRetrySchedule{
			ID:             uuid.New(),
			TenantID:       sub.TenantID,
			SubscriptionID: sub.ID,
			PaymentOrderID: orderID,
			RetryNumber:    i + 1,
			ScheduledFor:   now.Add(offset),
			Status:         RetryStatusPending,
		})
	}
	if err := qtx.CreateRetries(ctx, rows); err != nil {
		return nil, err
	}

	if err := qtx.UpdateSubscriptionStatus(ctx, subscriptionID, PaymentStatusRetrying, sub.FailedPaymentCount+1, sub.IsActive); err != nil {
		return nil, err
	}

	s.notifyBilling(ctx, tx, sub, events.RetryScheduled, paymentOrderID, 0, reason)

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("payment retries scheduled",
		zap.String("subscription_id", subscriptionID),
		zap.String("payment_order_id", paymentOrderID),
		zap.Int("retries", len(rows)),
	)
	return rows, nil
}

func (s *scheduler) ExecuteDueRetries(ctx context.Context, now time.Time) (*RunSummary, error) {
	release, acquired, err := s.lock.Acquire(ctx, "payment-retries")
	if err != nil {
		return nil, err
	}
	if !acquired {
		return &RunSummary{}, nil
	}
	defer release()

	due, err := s.repo.DueRetries(ctx, now, 100)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{}
	for i := range due {
		s.executeOne(ctx, &due[i], summary)
	}

	s.logger.Info("retry batch finished",
		zap.Int("due", len(due)),
		zap.Int("charged", summary.Charged),
		zap.Int("failed", summary.Failed),
		zap.Int("suspended", summary.Suspended),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// executeOne finalizes one retry row. Errors are absorbed into the
// summary: one subscription's gateway trouble must not strand the rest
// of the batch.
func (s *scheduler) executeOne(ctx context.Context, row *PaymentRetrySchedule, summary *RunSummary) {
	claimed, err := s.repo.Claim(ctx, row.ID.String())
	if err != nil {
		summary.Failed++
		s.logger.Error("retry claim failed", zap.String("retry_id", row.ID.String()), zap.Error(err))
		return
	}
	if !claimed {
		// another instance got there first
		summary.Skipped++
		return
	}
	summary.Claimed++

	sub, err := s.repo.FindSubscription(ctx, row.SubscriptionID.String())
	if err != nil {
		summary.Failed++
		s.failRetry(ctx, row, "subscription lookup failed: "+err.Error())
		return
	}
	if !sub.IsActive {
		summary.Skipped++
		if err := s.repo.MarkRetry(ctx, row.ID.String(), RetryStatusCancelled, nil, "subscription inactive"); err != nil {
			s.logger.Error("retry cancel failed", zap.String("retry_id", row.ID.String()), zap.Error(err))
		}
		return
	}
	if sub.SavedCardToken == "" {
		summary.Failed++
		s.failRetry(ctx, row, billingerrors.ErrNoSavedCard.Message)
		s.escalateIfExhausted(ctx, sub)
		return
	}

	order, err := s.repo.FindOrder(ctx, row.PaymentOrderID.String())
	if err != nil {
		summary.Failed++
		s.failRetry(ctx, row, "payment order lookup failed: "+err.Error())
		return
	}

	result, err := s.charger.Charge(ctx, sub.SavedCardToken, order.Amount, order.Currency, order.ExternalReference)
	if err != nil {
		summary.Failed++
		var gwErr *gateway.Error
		reason := "gateway call failed"
		if errors.As(err, &gwErr) {
			reason = gwErr.Error()
		}
		s.logger.Warn("retry charge failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.Int("retry_number", row.RetryNumber),
			zap.String("reason", reason),
		)
		s.recordAttempt(ctx, row, sub, "", false, reason)
		s.failRetry(ctx, row, reason)
		s.escalateIfExhausted(ctx, sub)
		return
	}

	// The charge request was placed; the row stays executing until the
	// gateway webhook settles the outcome.
	summary.Charged++
	attemptID := s.recordAttempt(ctx, row, sub, result.GatewayOrderID, result.Accepted, "")
	if attemptID != nil {
		if err := s.repo.MarkRetry(ctx, row.ID.String(), RetryStatusExecuting, attemptID, ""); err != nil {
			s.logger.Error("retry attempt link failed", zap.String("retry_id", row.ID.String()), zap.Error(err))
		}
	}
	s.notifyBilling(ctx, nil, sub, events.RetryExecuted, row.PaymentOrderID.String(), row.RetryNumber, "")
}

func (s *scheduler) CancelPendingRetries(ctx context.Context, subscriptionID, reason string) (int64, error) {
	cancelled, err := s.repo.CancelPending(ctx, subscriptionID, reason)
	if err != nil {
		return 0, err
	}
	if cancelled > 0 {
		s.logger.Info("pending retries cancelled",
			zap.String("subscription_id", subscriptionID),
			zap.Int64("count", cancelled),
			zap.String("reason", reason),
		)
	}
	return cancelled, nil
}

func (s *scheduler) HandlePaymentSucceeded(ctx context.Context, subscriptionID, gatewayOrderID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	sub, err := s.lockSubscription(ctx, qtx, subscriptionID)
	if err != nil {
		return err
	}

	if err := qtx.MarkSucceededByGatewayOrder(ctx, subscriptionID, gatewayOrderID); err != nil {
		return err
	}
	if _, err := qtx.CancelPending(ctx, subscriptionID, "payment recovered"); err != nil {
		return err
	}
	if err := qtx.UpdateSubscriptionStatus(ctx, subscriptionID, PaymentStatusCurrent, 0, sub.IsActive); err != nil {
		return err
	}

	s.notifyBilling(ctx, tx, sub, events.PaymentRecovered, "", 0, "")

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("payment recovered",
		zap.String("subscription_id", subscriptionID),
		zap.String("gateway_order_id", gatewayOrderID),
	)
	return nil
}

func (s *scheduler) SuspendSubscription(ctx context.Context, subscriptionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	sub, err := s.lockSubscription(ctx, qtx, subscriptionID)
	if err != nil {
		return err
	}
	if !sub.IsActive {
		// already suspended, keep the action idempotent
		return tx.Commit()
	}

	if err := qtx.UpdateSubscriptionStatus(ctx, subscriptionID, PaymentStatusFailed, sub.FailedPaymentCount, false); err != nil {
		return err
	}
	if err := s.tenants.Deactivate(ctx, sub.TenantID.String()); err != nil {
		return err
	}

	s.notifyBilling(ctx, tx, sub, events.SubscriptionSuspended, "", 0, "payment retries exhausted")

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Warn("subscription suspended",
		zap.String("subscription_id", subscriptionID),
		zap.String("tenant_id", sub.TenantID.String()),
	)
	return nil
}

func (s *scheduler) escalateIfExhausted(ctx context.Context, sub *TenantSubscription) {
	remaining, err := s.repo.CountPending(ctx, sub.ID.String())
	if err != nil {
		s.logger.Error("pending retry count failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
		return
	}
	if remaining > 0 {
		return
	}
	if err := s.SuspendSubscription(ctx, sub.ID.String()); err != nil {
		s.logger.Error("suspension failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *scheduler) failRetry(ctx context.Context, row *PaymentRetrySchedule, reason string) {
	if err := s.repo.MarkRetry(ctx, row.ID.String(), RetryStatusFailed, nil, reason); err != nil {
		s.logger.Error("retry fail-mark failed", zap.String("retry_id", row.ID.String()), zap.Error(err))
	}
}

func (s *scheduler) recordAttempt(ctx context.Context, row *PaymentRetrySchedule, sub *TenantSubscription, gatewayOrderID string, accepted bool, errMsg string) *uuid.UUID {
	retryID := row.ID
	orderID := row.PaymentOrderID
	a := &PaymentAttempt{
		ID:              uuid.New(),
		SubscriptionID:  sub.ID,
		PaymentOrderID:  &orderID,
		RetryScheduleID: &retryID,
		GatewayOrderID:  gatewayOrderID,
		Accepted:        accepted,
		ErrorMessage:    errMsg,
		AttemptedAt:     s.now(),
	}
	if err := s.repo.CreateAttempt(ctx, a); err != nil {
		s.logger.Error("attempt record failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
		return nil
	}
	return &a.ID
}

func (s *scheduler) lockSubscription(ctx context.Context, qtx Repository, subscriptionID string) (*TenantSubscription, error) {
	sub, err := qtx.FindSubscriptionForUpdate(ctx, subscriptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billingerrors.ErrSubscriptionNotFound
	}
	return sub, err
}

func (s *scheduler) notifyBilling(ctx context.Context, tx *sql.Tx, sub *TenantSubscription, eventType, paymentOrderID string, retryNumber int, reason string) {
	n := s.notifier
	if tx != nil {
		n = n.WithTx(tx)
	}
	n.Notify(ctx, notify.Event{
		Name:          eventType,
		Topic:         events.SubscriptionBillingTopic,
		AggregateType: "tenant_subscription",
		AggregateID:   sub.ID.String(),
		TenantID:      sub.TenantID.String(),
		Payload: events.SubscriptionBillingEvent{
			EventType:      eventType,
			TenantID:       sub.TenantID.String(),
			SubscriptionID: sub.ID.String(),
			PaymentOrderID: paymentOrderID,
			RetryNumber:    retryNumber,
			Amount:         sub.Amount.String(),
			Reason:         reason,
			OccurredAt:     s.now(),
		},
	})
}
