package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/app"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/aws"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/config"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("invalid worker config: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	var clients *aws.AWSClients
	if cfg.NeedsAWS() {
		clients, err = aws.NewAWSClients(context.Background())
		if err != nil {
			log.Fatalf("failed to init aws clients: %v", err)
		}
	}

	a, err := app.New(cfg, clients, logger)
	if err != nil {
		log.Fatalf("failed to wire app: %v", err)
	}
	p := NewProcessor(a.Coordinator, cfg.RiderPool, logger)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"order.status_changed","order_id":"local-order-1","status":"ready_for_pickup"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
