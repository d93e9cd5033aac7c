package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-invoice-importflow/internal/app"
	"github.com/imrishuroy/go-invoice-importflow/internal/handlers"
	"github.com/imrishuroy/go-invoice-importflow/internal/invoices"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterImportsRoutes(r, cfg)

	return r
}

func main() {
	ctx := context.Background()
	rt, err := app.NewRuntime(ctx, "api")
	if err != nil {
		log.Fatalf("bootstrap runtime: %v", err)
	}
	coordinator, err := rt.Coordinator()
	if err != nil {
		log.Fatalf("wire coordinator: %v", err)
	}

	r := setupRouter(handlers.HandlerConfig{
		Coordinator: coordinator,
		Invoices:    invoices.NewStore(rt.Clients.DynamoDB, rt.Config.InvoiceTable),
		Logger:      rt.Logger,
	})

	// RUN_LOCAL=true serves plain HTTP for development.
	if rt.Config.RunLocal {
		rt.Logger.Info("running local server", "addr", rt.Config.HTTPAddr)
		if err := r.Run(rt.Config.HTTPAddr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
