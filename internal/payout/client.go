package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/logger"
)

// ErrGatewayRejected is returned when the gateway answers with a non-retryable status
var ErrGatewayRejected = errors.New("payment gateway rejected the request")

const (
	transferPath   = "/api/transfers"
	collectionPath = "/api/collections"
	refundPath     = "/api/refunds"
	attempts       = 3
)

type transferRequest struct {
	Recipient ledger.Identity `json:"recipient"`
	Amount    uint64          `json:"amount"`
	Reference string          `json:"reference"`
}

type collectionRequest struct {
	Payer     ledger.Identity `json:"payer"`
	AccountID uint64          `json:"accountId"`
	Amount    uint64          `json:"amount"`
	Reference string          `json:"reference"`
}

// Client moves value through an HTTP payment gateway.
//
// Requests carry an Idempotency-Key, so only network failures and 5xx responses are retried.
// 402 means the payer cannot cover a collection. Any other non-2xx response is a rejection.
type Client struct {
	endpoint string
	client   *http.Client
	delay    time.Duration
}

var (
	_ ledger.Transferer = (*Client)(nil)
	_ ledger.Collector  = (*Client)(nil)
)

// NewClient creates a Client for the gateway at endpoint
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		delay:    100 * time.Millisecond,
	}
}

// Reference identifies a payout at the gateway.
func Reference(payout ledger.Payout) string {
	return fmt.Sprintf("%d-%d", payout.AccountID, payout.WithdrawID)
}

// Transfer pays out an executed withdrawal, keyed by its Reference
func (c *Client) Transfer(ctx context.Context, payout ledger.Payout) error {
	return c.post(ctx, transferPath, Reference(payout), transferRequest{
		Recipient: payout.Recipient,
		Amount:    payout.Amount,
		Reference: Reference(payout),
	})
}

// Collect asks the gateway to take a deposit from its payer.
func (c *Client) Collect(ctx context.Context, deposit ledger.Deposit) error {
	return c.post(ctx, collectionPath, deposit.Reference, newCollectionRequest(deposit))
}

// Refund returns a collected deposit to its payer.
func (c *Client) Refund(ctx context.Context, deposit ledger.Deposit) error {
	return c.post(ctx, refundPath, "refund-"+deposit.Reference, newCollectionRequest(deposit))
}

func newCollectionRequest(deposit ledger.Deposit) collectionRequest {
	return collectionRequest{
		Payer:     deposit.Payer,
		AccountID: deposit.AccountID,
		Amount:    deposit.Amount,
		Reference: deposit.Reference,
	}
}

func (c *Client) post(ctx context.Context, path, key string, request any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return retry.Do(
		func() error {
			return c.send(ctx, path, key, body)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrGatewayRejected) && !errors.Is(err, ledger.ErrInsufficientFunds)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Log.Warn("retrying gateway request",
				zap.Uint("attempt", n+1),
				zap.String("path", path),
				zap.String("key", key),
				zap.Error(err),
			)
		}),
	)
}

func (c *Client) send(ctx context.Context, path, key string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode >= 500:
		return fmt.Errorf("gateway responded with %d", res.StatusCode)
	}

	message, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	if res.StatusCode == http.StatusPaymentRequired {
		return fmt.Errorf("%w: %s", ledger.ErrInsufficientFunds, bytes.TrimSpace(message))
	}
	return fmt.Errorf("%w: %d %s", ErrGatewayRejected, res.StatusCode, bytes.TrimSpace(message))
}
