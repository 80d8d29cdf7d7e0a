package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/aws"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/config"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/idempotency"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/orders"
)

type captureSQS struct {
	inputs []*sqs.SendMessageInput
}

func (c *captureSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	c.inputs = append(c.inputs, params)
	return &sqs.SendMessageOutput{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryConfig() *config.Config {
	return &config.Config{
		OrderStore:     config.StoreMemory,
		IdempotencyTTL: time.Hour,
		MirrorTimeout:  time.Second,
		MaxQuantity:    3,
	}
}

func TestNew_MemoryNeedsNoAWS(t *testing.T) {
	a, err := New(memoryConfig(), nil, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &idempotency.MemoryStore{}, a.Idempotency)

	p := orders.NewOrderParams{
		UserID: "u", VendorID: "v", VendorName: "n", DishID: "d", DishTitle: "t",
		Quantity: 4, Price: 1, Address: "a", Phone: "p",
	}
	_, err = a.Coordinator.Create(context.Background(), p)
	assert.ErrorIs(t, err, orders.ErrValidation, "configured max quantity applies")
}

func TestNew_RequiresClientsWhenConfigured(t *testing.T) {
	cfg := memoryConfig()
	cfg.QueueURL = "https://sqs.local/q"
	_, err := New(cfg, nil, testLogger())
	assert.Error(t, err)
}

func TestNewRepository_Selection(t *testing.T) {
	clients := &aws.AWSClients{}
	cases := map[string]interface{}{
		config.StoreMemory:   &orders.MemoryStore{},
		config.StoreDynamoDB: &orders.DynamoStore{},
		config.StoreMirrored: &orders.MirroredStore{},
	}
	for store, want := range cases {
		cfg := memoryConfig()
		cfg.OrderStore = store
		cfg.OrdersTable = "orders"
		repo, err := NewRepository(cfg, clients, nil, testLogger())
		require.NoError(t, err)
		assert.IsType(t, want, repo, store)
	}

	cfg := memoryConfig()
	cfg.OrderStore = "sqlite"
	_, err := NewRepository(cfg, clients, nil, testLogger())
	assert.Error(t, err)
}

func TestNew_PublishesEventsToQueue(t *testing.T) {
	q := &captureSQS{}
	cfg := memoryConfig()
	cfg.QueueURL = "https://sqs.local/q"
	a, err := New(cfg, &aws.AWSClients{SQS: q}, testLogger())
	require.NoError(t, err)

	o, err := a.Coordinator.Create(context.Background(), orders.NewOrderParams{
		UserID: "u", VendorID: "v", VendorName: "n", DishID: "d", DishTitle: "t",
		Quantity: 1, Price: 10, Address: "a", Phone: "p",
	})
	require.NoError(t, err)

	require.Len(t, q.inputs, 1)
	in := q.inputs[0]
	assert.Equal(t, string(orders.EventCreated), *in.MessageAttributes["event_type"].StringValue)
	assert.Equal(t, o.OrderID, *in.MessageAttributes["order_id"].StringValue)

	var ev orders.Event
	require.NoError(t, json.Unmarshal([]byte(*in.MessageBody), &ev))
	assert.Equal(t, orders.EventCreated, ev.Type)
	assert.Equal(t, orders.StatusPlaced, ev.Status)
}
