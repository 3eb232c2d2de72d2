package events

import "time"

const SubscriptionBillingTopic = "billing.subscription.v1"

const (
	RetryScheduled        = "subscription.retry_scheduled"
	RetryExecuted         = "subscription.retry_executed"
	RetriesCancelled      = "subscription.retries_cancelled"
	SubscriptionSuspended = "subscription.suspended"
	PaymentRecovered      = "subscription.payment_recovered"
)

type SubscriptionBillingEvent struct {
	EventType      string    `json:"event_type"`
	TenantID       string    `json:"tenant_id"`
	SubscriptionID string    `json:"subscription_id"`
	PaymentOrderID string    `json:"payment_order_id,omitempty"`
	RetryNumber    int       `json:"retry_number,omitempty"`
	Amount         string    `json:"amount,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
