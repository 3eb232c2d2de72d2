package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusCurrent  = "current"
	PaymentStatusRetrying = "retrying"
	PaymentStatusFailed   = "failed"
	PaymentStatusOverdue  = "overdue"
	PaymentStatusNoCard   = "no_card"
)

const (
	RetryStatusPending   = "pending"
	RetryStatusExecuting = "executing"
	RetryStatusSucceeded = "succeeded"
	RetryStatusFailed    = "failed"
	RetryStatusCancelled = "cancelled"
)

// RetryOffsets is the fixed cadence applied from the moment a payment
// fails: a quick retry, then two spaced-out attempts.
var RetryOffsets = []time.Duration{
	4 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
}

// TenantSubscription is the billing record gating a tenant's access.
// PaymentStatus is the single source of truth for whether access should
// be restricted; IsActive=false is terminal for this subsystem.
type TenantSubscription struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	PlanCode       string
	Amount         decimal.Decimal
	Currency       string
	SavedCardToken string

	PaymentStatus      string
	FailedPaymentCount int
	IsActive           bool

	NextBillingDate *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentOrder is one billing charge the gateway was (or will be) asked
// to collect.
type PaymentOrder struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	SubscriptionID    uuid.UUID
	Amount            decimal.Decimal
	Currency          string
	ExternalReference string
	GatewayOrderID    string
	Status            string
	CreatedAt         time.Time
}

// PaymentAttempt records one gateway charge call, accepted or not.
type PaymentAttempt struct {
	ID              uuid.UUID
	SubscriptionID  uuid.UUID
	PaymentOrderID  *uuid.UUID
	RetryScheduleID *uuid.UUID
	GatewayOrderID  string
	Accepted        bool
	ErrorMessage    string
	AttemptedAt     time.Time
}

// PaymentRetrySchedule is one planned retry of a failed payment.
// Rows are created in a batch when a payment fails and consumed one at
// a time; a recovery through any channel cancels the rest en masse.
type PaymentRetrySchedule struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	SubscriptionID uuid.UUID
	PaymentOrderID uuid.UUID
	RetryNumber    int
	ScheduledFor   time.Time
	Status         string
	AttemptID      *uuid.UUID
	Reason         string
	ExecutedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
