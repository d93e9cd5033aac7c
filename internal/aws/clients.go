package aws

import (
	"context"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// AWSClients bundles all service clients for convenience.
type AWSClients struct {
	DynamoDB    DynamoDBAPI
	SQS         SQSAPI
	CloudWatch  CloudWatchAPI
	S3          S3API
	Presign     PresignAPI
	EventBridge EventBridgeAPI
	Connections ConnectionsAPI
}

// NewAWSClients loads AWS config and returns concrete service clients that implement our interfaces.
// wsEndpoint is the WebSocket API stage URL; the management client is only built when it is set.
func NewAWSClients(ctx context.Context, wsEndpoint string) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// LocalStack only serves path-style bucket addressing
		o.UsePathStyle = cfg.BaseEndpoint != nil
	})

	clients := &AWSClients{
		DynamoDB:    dynamodb.NewFromConfig(cfg),
		SQS:         sqs.NewFromConfig(cfg),
		CloudWatch:  cloudwatch.NewFromConfig(cfg),
		S3:          s3Client,
		Presign:     s3.NewPresignClient(s3Client),
		EventBridge: eventbridge.NewFromConfig(cfg),
	}
	if wsEndpoint != "" {
		clients.Connections = apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = sdkaws.String(ManagementEndpoint(wsEndpoint))
		})
	}
	return clients, nil
}

// ManagementEndpoint converts a WebSocket stage URL (wss://id.execute-api.region.amazonaws.com/prod)
// into the https form the management API expects.
func ManagementEndpoint(wsEndpoint string) string {
	if rest, ok := strings.CutPrefix(wsEndpoint, "wss://"); ok {
		return "https://" + rest
	}
	if rest, ok := strings.CutPrefix(wsEndpoint, "ws://"); ok {
		return "http://" + rest
	}
	return wsEndpoint
}
