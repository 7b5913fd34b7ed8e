package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/event"
)

// StreamQueue hands deductions to a durable stream so they survive restarts.
// Deductions that touched no ingredient are redelivered by the stream consumer.
// Partial ones are acknowledged and logged so nothing is deducted twice.
type StreamQueue struct {
	publisher  events.Publisher
	subscriber events.Subscriber
	applier    Applier
	logger     apt.Logger
}

func NewStreamQueue(publisher events.Publisher, subscriber events.Subscriber, applier Applier, logger apt.Logger) *StreamQueue {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &StreamQueue{
		publisher:  publisher,
		subscriber: subscriber,
		applier:    applier,
		logger:     logger,
	}
}

func (q *StreamQueue) Enqueue(ctx context.Context, d Deduction) error {
	evt := event.StockDeductionRequestedEvent{
		EventType:    event.EventStockDeductionRequested,
		OccurredAt:   time.Now().UTC(),
		OrderID:      d.OrderID.String(),
		RestaurantID: d.RestaurantID.String(),
	}
	for _, l := range d.Lines {
		evt.Lines = append(evt.Lines, event.StockLine{MenuItemID: l.MenuItemID.String(), Quantity: l.Quantity})
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("cannot marshal stock deduction: %w", err)
	}
	return q.publisher.Publish(ctx, event.StockTopic, payload)
}

func (q *StreamQueue) Start(ctx context.Context) error {
	if err := q.subscriber.Subscribe(ctx, event.StockTopic, q.handle); err != nil {
		return fmt.Errorf("cannot subscribe to stock stream: %w", err)
	}
	q.logger.Info("stock stream consumer started", "topic", event.StockTopic)
	return nil
}

func (q *StreamQueue) Stop(ctx context.Context) error {
	return nil
}

func (q *StreamQueue) handle(ctx context.Context, msg []byte) error {
	var evt event.StockDeductionRequestedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		q.logger.Error("dropping malformed stock event", "error", err)
		return nil
	}

	d, err := deductionFromEvent(evt)
	if err != nil {
		q.logger.Error("dropping invalid stock event", "error", err)
		return nil
	}

	err = q.applier.Apply(ctx, d)
	var partial *PartialDeductionError
	if errors.As(err, &partial) {
		q.logger.Error("stock partially deducted, not retrying",
			"order_id", d.OrderID.String(),
			"applied", partial.Applied,
			"failed", partial.Failed,
			"error", partial.Err)
		return nil
	}
	return err
}

func deductionFromEvent(evt event.StockDeductionRequestedEvent) (Deduction, error) {
	orderID, err := uuid.Parse(evt.OrderID)
	if err != nil {
		return Deduction{}, fmt.Errorf("invalid order_id: %w", err)
	}
	restaurantID, err := uuid.Parse(evt.RestaurantID)
	if err != nil {
		return Deduction{}, fmt.Errorf("invalid restaurant_id: %w", err)
	}

	d := Deduction{OrderID: orderID, RestaurantID: restaurantID}
	for _, l := range evt.Lines {
		id, err := uuid.Parse(l.MenuItemID)
		if err != nil {
			return Deduction{}, fmt.Errorf("invalid menu_item_id: %w", err)
		}
		d.Lines = append(d.Lines, Line{MenuItemID: id, Quantity: l.Quantity})
	}
	return d, nil
}
