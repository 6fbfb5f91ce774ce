package service

import (
	"context"
	"errors"
	"log/slog"

	"go-inventory-pos/internal/model"
)

// Notifier receives low-stock alerts after the triggering transaction commits.
type Notifier interface {
	NotifyLowStock(ctx context.Context, alert model.LowStockAlert) error
}

// EventPublisher pushes committed state changes to live listeners.
type EventPublisher interface {
	Publish(event string, payload interface{}) error
}

// Event names sent to live listeners.
const (
	EventLowStock      = "low_stock"
	EventStockUpdate   = "stock_update"
	EventSettlement    = "settlement"
	EventSessionOpened = "session_opened"
	EventSessionClosed = "session_closed"
)

type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) NotifyLowStock(ctx context.Context, alert model.LowStockAlert) error {
	n.Logger.WarnContext(ctx, "low stock",
		"product_id", alert.ProductID,
		"product", alert.ProductName,
		"store_id", alert.StoreID,
		"quantity", alert.Quantity.String(),
		"threshold", alert.Threshold.String(),
	)
	return nil
}

// MultiNotifier fans an alert out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyLowStock(ctx context.Context, alert model.LowStockAlert) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyLowStock(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) error { return nil }

// alertSink delivers collected alerts once the transaction is durable.
type alertSink struct {
	notifier Notifier
	events   EventPublisher
	logger   *slog.Logger
}

func (s alertSink) deliver(ctx context.Context, alerts []model.LowStockAlert) {
	for _, a := range alerts {
		if err := s.notifier.NotifyLowStock(ctx, a); err != nil {
			s.logger.Error("low stock notification failed", "product_id", a.ProductID, "store_id", a.StoreID, "error", err)
		}
	}
}

func (s alertSink) publish(event string, payload interface{}) {
	if err := s.events.Publish(event, payload); err != nil {
		s.logger.Error("event publish failed", "event", event, "error", err)
	}
}
