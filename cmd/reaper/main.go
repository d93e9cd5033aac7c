package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-invoice-importflow/internal/app"
)

func main() {
	rt, err := app.NewRuntime(context.Background(), "reaper")
	if err != nil {
		log.Fatalf("bootstrap runtime: %v", err)
	}
	coordinator, err := rt.Coordinator()
	if err != nil {
		log.Fatalf("wire coordinator: %v", err)
	}

	p := NewProcessor(coordinator, rt.Logger)
	lambda.Start(p.Handle)
}
