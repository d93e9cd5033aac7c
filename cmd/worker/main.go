package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-invoice-importflow/internal/app"
)

func main() {
	ctx := context.Background()
	rt, err := app.NewRuntime(ctx, "audit-worker")
	if err != nil {
		log.Fatalf("bootstrap runtime: %v", err)
	}
	p := NewProcessor(rt.Metrics, rt.Logger)

	// If RUN_LOCAL=true, process a single message from LOCAL_SQS_BODY and exit.
	if rt.Config.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"category":"TIMEOUT","transactionId":"local-tx-1","status":"TIMEOUT"}`
		}
		resp, err := p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local-1", Body: body}}})
		if err != nil || len(resp.BatchItemFailures) > 0 {
			log.Fatalf("local handler failed: %v %+v", err, resp.BatchItemFailures)
		}
		return
	}

	lambda.Start(p.Handle)
}
