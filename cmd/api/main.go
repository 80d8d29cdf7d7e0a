package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/app"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/aws"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/config"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/handlers"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/logging"
)

func setupRouter(cfg *config.Config, a *app.App, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(corsMiddleware(cfg.CORSOrigins))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterOrdersRoutes(r, handlers.HandlerConfig{
		Coordinator: a.Coordinator,
		Idempotency: a.Idempotency,
		AdminKey:    cfg.AdminKey,
		MaxQuantity: cfg.MaxQuantity,
		Logger:      logger,
	})

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Idempotency-Key", "X-Request-Id"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
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

	r := setupRouter(cfg, a, logger)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		logger.Info("running local server", "addr", addr, "order_store", cfg.OrderStore)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
