package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-invoice-importflow/internal/app"
	"github.com/imrishuroy/go-invoice-importflow/internal/handlers"
)

func main() {
	rt, err := app.NewRuntime(context.Background(), "websocket")
	if err != nil {
		log.Fatalf("bootstrap runtime: %v", err)
	}
	coordinator, err := rt.Coordinator()
	if err != nil {
		log.Fatalf("wire coordinator: %v", err)
	}

	h := handlers.NewWebSocketHandler(handlers.HandlerConfig{
		Coordinator: coordinator,
		Logger:      rt.Logger,
	})
	lambda.Start(h.Handle)
}
