// Package app assembles the order coordinator and its collaborators from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/aws"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/config"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/idempotency"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/orders"
)

// App holds the wired components shared by the API and the worker.
type App struct {
	Coordinator *orders.Coordinator
	Idempotency idempotency.Keeper
}

// New builds the repository selected by cfg.OrderStore, the event publisher, the
// metrics counter and the idempotency keeper. clients may be nil when cfg needs no AWS.
func New(cfg *config.Config, clients *aws.AWSClients, logger *slog.Logger) (*App, error) {
	if cfg.NeedsAWS() && clients == nil {
		return nil, fmt.Errorf("configuration requires AWS clients")
	}

	var metrics orders.Counter
	if cfg.MetricsNamespace != "" {
		metrics = aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace, logger)
	}

	repo, err := NewRepository(cfg, clients, metrics, logger)
	if err != nil {
		return nil, err
	}

	opts := []orders.Option{orders.WithMaxQuantity(cfg.MaxQuantity)}
	if cfg.QueueURL != "" {
		opts = append(opts, orders.WithPublisher(EventPublisher{aws.NewPublisher(clients.SQS, cfg.QueueURL)}))
	}

	var keeper idempotency.Keeper
	if cfg.IdempotencyTable != "" {
		keeper = idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	} else {
		keeper = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	}

	return &App{
		Coordinator: orders.NewCoordinator(repo, logger, opts...),
		Idempotency: keeper,
	}, nil
}

// NewRepository selects the order store for the process lifetime.
func NewRepository(cfg *config.Config, clients *aws.AWSClients, metrics orders.Counter, logger *slog.Logger) (orders.Repository, error) {
	switch cfg.OrderStore {
	case config.StoreMemory:
		return orders.NewMemoryStore(), nil
	case config.StoreDynamoDB:
		return orders.NewDynamoStore(clients.DynamoDB, cfg.OrdersTable), nil
	case config.StoreMirrored:
		mirror := orders.NewDynamoStore(clients.DynamoDB, cfg.OrdersTable)
		return orders.NewMirroredStore(orders.NewMemoryStore(), mirror, cfg.MirrorTimeout, metrics, logger), nil
	default:
		return nil, fmt.Errorf("unknown order store %q", cfg.OrderStore)
	}
}

// EventPublisher adapts the SQS publisher to orders.Publisher.
type EventPublisher struct {
	SQS *aws.Publisher
}

func (p EventPublisher) Publish(ctx context.Context, ev orders.Event) error {
	return p.SQS.PublishJSON(ctx, ev, map[string]string{
		"event_type": string(ev.Type),
		"order_id":   ev.OrderID,
	})
}
