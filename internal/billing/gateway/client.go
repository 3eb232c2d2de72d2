package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client is the HTTP charger. Calls are rate limited so a large retry
// batch cannot trip the gateway's request quota.
type Client struct {
	baseURL    string
	merchantID string
	secretKey  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type Config struct {
	BaseURL        string
	MerchantID     string
	SecretKey      string
	Timeout        time.Duration
	RequestsPerSec float64
}

func NewClient(cfg Config, logger ...*zap.Logger) *Client {
	l := zap.L().Named("billing.gateway")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("billing.gateway")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 5
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		merchantID: cfg.MerchantID,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		logger:     l,
	}
}

type chargeRequest struct {
	MerchantID     string `json:"merchant_id"`
	CardToken      string `json:"card_token"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	OrderReference string `json:"order_reference"`
}

type chargeResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Client) Charge(ctx context.Context, cardToken string, amount decimal.Decimal, currency, externalReference string) (*ChargeResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Message: "rate limiter wait aborted", Err: err}
	}

	body, err := json.Marshal(chargeRequest{
		MerchantID:     c.merchantID,
		CardToken:      cardToken,
		Amount:         amount.StringFixed(2),
		Currency:       currency,
		OrderReference: externalReference,
	})
	if err != nil {
		return nil, &Error{Message: "encode charge request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/charge/recurring", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Message: "build charge request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: "charge call failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "read charge response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("gateway rejected charge call",
			zap.Int("status", resp.StatusCode),
			zap.String("reference", externalReference),
		)
		return nil, &Error{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var out chargeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "decode charge response", Err: err}
	}

	return &ChargeResult{
		GatewayOrderID: out.OrderID,
		Accepted:       out.Status == "accepted" || out.Status == "created" || out.Status == "processing",
	}, nil
}
