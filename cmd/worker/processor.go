package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/orders"
)

// Allocator is the part of the coordinator the worker drives.
type Allocator interface {
	BeginAllocation(ctx context.Context, orderID string, pool []string) (orders.Order, error)
}

// Processor handles SQS order events and starts rider allocation for ready orders.
type Processor struct {
	allocator Allocator
	pool      []string
	logger    *slog.Logger
}

// NewProcessor creates a worker processor offering orders to pool in order.
func NewProcessor(allocator Allocator, pool []string, logger *slog.Logger) *Processor {
	return &Processor{
		allocator: allocator,
		pool:      pool,
		logger:    logger,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.Info("received SQS messages", "count", len(ev.Records))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			p.logger.Error("worker error", "message_id", rec.MessageId, "error", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg orders.Event
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.Type != orders.EventStatusChanged || msg.Status != orders.StatusReadyForPickup {
		p.logger.Debug("ignoring event", "type", msg.Type, "order_id", msg.OrderID, "status", msg.Status)
		return nil
	}
	if len(p.pool) == 0 {
		p.logger.Warn("no rider pool configured, leaving order for manual allocation", "order_id", msg.OrderID)
		return nil
	}

	o, err := p.allocator.BeginAllocation(ctx, msg.OrderID, p.pool)
	switch {
	case err == nil:
		p.logger.Info("offer sent", "order_id", o.OrderID, "rider_id", o.CurrentCandidateRiderID)
		return nil
	case errors.Is(err, orders.ErrAllocationExhausted):
		// the coordinator already logged and published the signal
		return nil
	case errors.Is(err, orders.ErrNotFound):
		// redelivery cannot help: this process does not share the API's order store
		p.logger.Warn("order not found, dropping event", "order_id", msg.OrderID, "error", err)
		return nil
	case errors.Is(err, orders.ErrPrecondition):
		// duplicate delivery, or allocation already started by an admin
		p.logger.Info("allocation not applicable", "order_id", msg.OrderID, "reason", err)
		return nil
	default:
		return fmt.Errorf("begin allocation for order=%s: %w", msg.OrderID, err)
	}
}
