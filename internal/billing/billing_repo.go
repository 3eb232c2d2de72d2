package billing

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Repository persists subscriptions, retry schedule rows and payment
// attempts. The claim on a retry row is a conditional UPDATE so two
// overlapping scheduler instances can never both charge the same retry.
//
//go:generate mockgen -source=billing_repo.go -destination=mock/billing_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	FindSubscription(ctx context.Context, id string) (*TenantSubscription, error)
	// FindSubscriptionForUpdate locks the subscription row. Must be
	// called with a bound transaction.
	FindSubscriptionForUpdate(ctx context.Context, id string) (*TenantSubscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id, paymentStatus string, failedCount int, isActive bool) error

	CreateRetries(ctx context.Context, rows []PaymentRetrySchedule) error
	DueRetries(ctx context.Context, now time.Time, limit int) ([]PaymentRetrySchedule, error)
	// Claim transitions one row pending->executing. Returns false when
	// the row was no longer pending (claimed or cancelled elsewhere).
	Claim(ctx context.Context, id string) (bool, error)
	MarkRetry(ctx context.Context, id, status string, attemptID *uuid.UUID, reason string) error
	// MarkSucceededByGatewayOrder resolves the executing row whose
	// attempt carries the given gateway order id.
	MarkSucceededByGatewayOrder(ctx context.Context, subscriptionID, gatewayOrderID string) error
	// CancelPending bulk-cancels every pending row of the subscription.
	CancelPending(ctx context.Context, subscriptionID, reason string) (int64, error)
	CountPending(ctx context.Context, subscriptionID string) (int, error)

	CreateAttempt(ctx context.Context, a *PaymentAttempt) error
	FindOrder(ctx context.Context, id string) (*PaymentOrder, error)
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

const subscriptionColumns = `
	id::text, tenant_id::text, plan_code, amount, currency, saved_card_token,
	payment_status, failed_payment_count, is_active, next_billing_date,
	created_at, updated_at
`

func (r *repository) FindSubscription(ctx context.Context, id string) (*TenantSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
FROM tenant_subscriptions
WHERE id = $1
`
	return r.scanSubscription(r.querier().QueryRowContext(ctx, query, id))
}

func (r *repository) FindSubscriptionForUpdate(ctx context.Context, id string) (*TenantSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
FROM tenant_subscriptions
WHERE id = $1
FOR UPDATE
`
	return r.scanSubscription(r.querier().QueryRowContext(ctx, query, id))
}

func (r *repository) UpdateSubscriptionStatus(ctx context.Context, id, paymentStatus string, failedCount int, isActive bool) error {
	query := `
UPDATE tenant_subscriptions
SET payment_status = $2, failed_payment_count = $3, is_active = $4, updated_at = NOW()
WHERE id = $1
`
	_, err := r.execer().ExecContext(ctx, query, id, paymentStatus, failedCount, isActive)
	return err
}

func (r *repository) CreateRetries(ctx context.Context, rows []PaymentRetrySchedule) error {
	query := `
        INSERT INTO payment_retry_schedules (
            id, tenant_id, subscription_id, payment_order_id,
            retry_number, scheduled_for, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	for i := range rows {
		row := &rows[i]
		_, err := r.execer().ExecContext(
			ctx, query,
			row.ID, row.TenantID, row.SubscriptionID, row.PaymentOrderID,
			row.RetryNumber, row.ScheduledFor, row.Status,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

const retryColumns = `
	id::text, tenant_id::text, subscription_id::text, payment_order_id::text,
	retry_number, scheduled_for, status, attempt_id::text, reason, executed_at,
	created_at, updated_at
`

func (r *repository) DueRetries(ctx context.Context, now time.Time, limit int) ([]PaymentRetrySchedule, error) {
	query := `SELECT ` + retryColumns + `
FROM payment_retry_schedules
WHERE status = 'pending' AND scheduled_for <= $1
ORDER BY scheduled_for
LIMIT $2
`
	rows, err := r.querier().QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PaymentRetrySchedule
	for rows.Next() {
		row, err := scanRetry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

func (r *repository) Claim(ctx context.Context, id string) (bool, error) {
	query := `
UPDATE payment_retry_schedules
SET status = 'executing', executed_at = NOW(), updated_at = NOW()
WHERE id = $1 AND status = 'pending'
`
	res, err := r.execer().ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) MarkRetry(ctx context.Context, id, status string, attemptID *uuid.UUID, reason string) error {
	query := `
UPDATE payment_retry_schedules
SET status = $2, attempt_id = $3, reason = $4, updated_at = NOW()
WHERE id = $1
`
	var aid any
	if attemptID != nil {
		aid = *attemptID
	}
	_, err := r.execer().ExecContext(ctx, query, id, status, aid, reason)
	return err
}

func (r *repository) MarkSucceededByGatewayOrder(ctx context.Context, subscriptionID, gatewayOrderID string) error {
	query := `
UPDATE payment_retry_schedules
SET status = 'succeeded', updated_at = NOW()
WHERE subscription_id = $1
  AND status = 'executing'
  AND attempt_id IN (
	SELECT id FROM payment_attempts WHERE gateway_order_id = $2
  )
`
	_, err := r.execer().ExecContext(ctx, query, subscriptionID, gatewayOrderID)
	return err
}

func (r *repository) CancelPending(ctx context.Context, subscriptionID, reason string) (int64, error) {
	query := `
UPDATE payment_retry_schedules
SET status = 'cancelled', reason = $2, updated_at = NOW()
WHERE subscription_id = $1 AND status = 'pending'
`
	res, err := r.execer().ExecContext(ctx, query, subscriptionID, reason)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) CountPending(ctx context.Context, subscriptionID string) (int, error) {
	query := `
SELECT COUNT(*) FROM payment_retry_schedules
WHERE subscription_id = $1 AND status = 'pending'
`
	var count int
	err := r.querier().QueryRowContext(ctx, query, subscriptionID).Scan(&count)
	return count, err
}

func (r *repository) CreateAttempt(ctx context.Context, a *PaymentAttempt) error {
	query := `
        INSERT INTO payment_attempts (
            id, subscription_id, payment_order_id, retry_schedule_id,
            gateway_order_id, accepted, error_message, attempted_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	var orderID, retryID any
	if a.PaymentOrderID != nil {
		orderID = *a.PaymentOrderID
	}
	if a.RetryScheduleID != nil {
		retryID = *a.RetryScheduleID
	}
	_, err := r.execer().ExecContext(
		ctx, query,
		a.ID, a.SubscriptionID, orderID, retryID,
		a.GatewayOrderID, a.Accepted, a.ErrorMessage, a.AttemptedAt,
	)
	return err
}

func (r *repository) FindOrder(ctx context.Context, id string) (*PaymentOrder, error) {
	query := `
SELECT id::text, tenant_id::text, subscription_id::text, amount, currency,
       external_reference, gateway_order_id, status, created_at
FROM payment_orders
WHERE id = $1
`
	var o PaymentOrder
	var oid, tid, sid string
	var externalRef, gatewayOrderID sql.NullString
	err := r.querier().QueryRowContext(ctx, query, id).Scan(
		&oid, &tid, &sid, &o.Amount, &o.Currency,
		&externalRef, &gatewayOrderID, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.ID, _ = uuid.Parse(oid)
	o.TenantID, _ = uuid.Parse(tid)
	o.SubscriptionID, _ = uuid.Parse(sid)
	o.ExternalReference = externalRef.String
	o.GatewayOrderID = gatewayOrderID.String
	return &o, nil
}

func (r *repository) scanSubscription(row *sql.Row) (*TenantSubscription, error) {
	var s TenantSubscription
	var id, tenantID string
	var cardToken sql.NullString
	var nextBilling sql.NullTime
	err := row.Scan(
		&id, &tenantID, &s.PlanCode, &s.Amount, &s.Currency, &cardToken,
		&s.PaymentStatus, &s.FailedPaymentCount, &s.IsActive, &nextBilling,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.ID, _ = uuid.Parse(id)
	s.TenantID, _ = uuid.Parse(tenantID)
	s.SavedCardToken = cardToken.String
	if nextBilling.Valid {
		t := nextBilling.Time
		s.NextBillingDate = &t
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRetry(row rowScanner) (*PaymentRetrySchedule, error) {
	var rt PaymentRetrySchedule
	var id, tenantID, subscriptionID, orderID string
	var attemptID, reason sql.NullString
	var executedAt sql.NullTime
	err := row.Scan(
		&id, &tenantID, &subscriptionID, &orderID,
		&rt.RetryNumber, &rt.ScheduledFor, &rt.Status, &attemptID, &reason, &executedAt,
		&rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rt.ID, _ = uuid.Parse(id)
	rt.TenantID, _ = uuid.Parse(tenantID)
	rt.SubscriptionID, _ = uuid.Parse(subscriptionID)
	rt.PaymentOrderID, _ = uuid.Parse(orderID)
	rt.Reason = reason.String
	if attemptID.Valid {
		aid, err := uuid.Parse(attemptID.String)
		if err == nil {
			rt.AttemptID = &aid
		}
	}
	if executedAt.Valid {
		t := executedAt.Time
		rt.ExecutedAt = &t
	}
	return &rt, nil
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) querier() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
