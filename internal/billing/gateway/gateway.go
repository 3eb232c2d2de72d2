package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ChargeResult is the gateway's synchronous answer. Accepted means the
// charge request was placed; the final outcome arrives later through
// the gateway's webhook.
type ChargeResult struct {
	GatewayOrderID string
	Accepted       bool
}

// Charger places charges against saved card tokens.
//
//go:generate mockgen -source=gateway.go -destination=mock/gateway_mock.go -package=mock
type Charger interface {
	Charge(ctx context.Context, cardToken string, amount decimal.Decimal, currency, externalReference string) (*ChargeResult, error)
}

// Error wraps any failure to complete the gateway call itself: network,
// timeout, or a non-2xx response.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("payment gateway: status %d: %s", e.StatusCode, e.Message)
	}
	return "payment gateway: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }
