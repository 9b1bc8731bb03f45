package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/logger"
	"github.com/Renal37/bankaccount/internal/utils"
)

// Errors of a notification attempt
var (
	errNotificationRejected = errors.New("webhook rejected the notification")
	errTooManyRequests      = errors.New("webhook is rate limited")
)

// Delivery limits, the duration is in seconds
const (
	defaultRetryAfterDuration = 5
	notificationAttempts      = 5
)

// notifierJobQueue runs deliveries in the background
type notifierJobQueue interface {
	Enqueue(job Job) error
}

// Notifier posts every published event to a webhook. Deliveries go through the job queue, so with a
// single worker the webhook sees events in publication order.
type Notifier struct {
	queue    notifierJobQueue
	endpoint string
	client   *http.Client
	attempts uint
	delay    time.Duration
}

var _ ledger.Publisher = (*Notifier)(nil)

// NewNotifier creates a Notifier posting to endpoint through queue
func NewNotifier(queue notifierJobQueue, endpoint string) *Notifier {
	return &Notifier{
		queue:    queue,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		attempts: notificationAttempts,
		delay:    time.Second,
	}
}

// notification is the JSON body of a delivery
type notification struct {
	ledger.Event
	SentAt utils.RFC3339Date `json:"sentAt"`
}

// Publish enqueues one delivery per event. A full queue loses the event, which is logged.
func (n *Notifier) Publish(events ...ledger.Event) {
	for _, event := range events {
		event := event
		err := n.queue.Enqueue(func(ctx context.Context) {
			n.deliver(ctx, event)
		})
		if err != nil {
			logger.Log.Error("failed to enqueue notification",
				zap.Uint64("seq", event.Seq),
				zap.String("kind", string(event.Kind)),
				zap.Error(err),
			)
		}
	}
}

// deliver sends event until the webhook accepts it, rejects it or attempts run out
func (n *Notifier) deliver(ctx context.Context, event ledger.Event) {
	err := retry.Do(
		func() error {
			return n.send(ctx, event)
		},
		retry.Context(ctx),
		retry.Attempts(n.attempts),
		retry.Delay(n.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, errNotificationRejected)
		}),
	)
	if err != nil {
		logger.Log.Error("failed to deliver notification",
			zap.Uint64("seq", event.Seq),
			zap.String("kind", string(event.Kind)),
			zap.Error(err),
		)
		return
	}

	logger.Log.Debug("notification delivered",
		zap.Uint64("seq", event.Seq),
		zap.String("kind", string(event.Kind)),
	)
}

// send makes a single delivery attempt
func (n *Notifier) send(ctx context.Context, event ledger.Event) error {
	body, err := json.Marshal(&notification{
		Event:  event,
		SentAt: utils.RFC3339Date{Time: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Seq", strconv.FormatUint(event.Seq, 10))

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer res.Body.Close()

	// Deciding on a retry by the status of the response
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusTooManyRequests:
		retryAfter, err := strconv.Atoi(res.Header.Get("Retry-After"))
		if err != nil {
			retryAfter = defaultRetryAfterDuration
		}

		logger.Log.Info("got retryAfter", zap.Int("retryAfter", retryAfter), zap.Uint64("seq", event.Seq))

		timer := time.NewTimer(time.Duration(retryAfter) * time.Second)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		return errTooManyRequests
	case res.StatusCode >= 500:
		return fmt.Errorf("webhook responded with %d", res.StatusCode)
	default:
		return fmt.Errorf("%w: %d", errNotificationRejected, res.StatusCode)
	}
}
