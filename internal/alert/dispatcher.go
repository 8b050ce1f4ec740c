// Package alert dispatches price-drop notifications to the downstream
// notifier. The pipeline treats dispatch as fire-and-forget: a failed or
// throttled alert never fails the record that triggered it.
package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shelfwatch/shelfwatch/internal/common"
	"golang.org/x/time/rate"
)

// Event is one price-drop notification handed to the delivery sink.
type Event struct {
	OccurredAt time.Time
	ID         string
	ProductIDs []int64
}

// Sink delivers an event to the external notification service.
type Sink func(ctx context.Context, event Event) error

// Dispatcher implements service.PriceAlerter. A token bucket throttles
// dispatch so a flood of price drops cannot hammer the notifier; excess
// alerts are dropped, not queued.
type Dispatcher struct {
	limiter *rate.Limiter
	sink    Sink
}

// NewDispatcher creates a dispatcher delivering through sink. A nil sink
// logs events instead of delivering them, which is all the CLI needs.
func NewDispatcher(perSecond rate.Limit, burst int, sink Sink) *Dispatcher {
	if perSecond <= 0 {
		perSecond = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &Dispatcher{
		limiter: rate.NewLimiter(perSecond, burst),
		sink:    sink,
	}
}

// PriceDrop dispatches an alert for the given master product ids. It never
// blocks: delivery happens on its own goroutine, and alerts beyond the rate
// limit are dropped with a warning.
func (d *Dispatcher) PriceDrop(ctx context.Context, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}

	if !d.limiter.Allow() {
		slog.Warn("Price-drop alert dropped by rate limit", "product_ids", productIDs)
		return nil
	}

	event := Event{
		ID:         uuid.NewString(),
		ProductIDs: productIDs,
		OccurredAt: time.Now().UTC(),
	}

	if d.sink == nil {
		slog.Info("Price drop detected",
			"event_id", event.ID,
			"product_ids", event.ProductIDs)
		return nil
	}

	go func() {
		// detach from the record's context; the record is already committed
		deliveryCtx := context.WithoutCancel(ctx)
		err := common.WithRetry(deliveryCtx, func() error {
			return d.sink(deliveryCtx, event)
		}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond})
		if err != nil {
			slog.Error("Price-drop delivery failed",
				"event_id", event.ID,
				"error", err)
		}
	}()
	return nil
}
