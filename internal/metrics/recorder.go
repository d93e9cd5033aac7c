package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/imrishuroy/go-invoice-importflow/internal/aws"
)

// Metric names
const (
	MetricImportOutcome = "ImportOutcome"
	MetricAuditEvents   = "AuditEvents"
)

// Recorder publishes count metrics to CloudWatch.
type Recorder struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewRecorder returns a Recorder writing into namespace.
func NewRecorder(client aws.CloudWatchAPI, namespace string) *Recorder {
	return &Recorder{client: client, namespace: namespace, nowFunc: time.Now}
}

// RecordOutcome counts one transaction reaching status.
func (r *Recorder) RecordOutcome(ctx context.Context, status string) error {
	return r.Count(ctx, MetricImportOutcome, map[string]string{"Status": status})
}

// RecordAudit counts one audit event of category.
func (r *Recorder) RecordAudit(ctx context.Context, category string) error {
	return r.Count(ctx, MetricAuditEvents, map[string]string{"Category": category})
}

// Count puts a single datum of value 1 for name with the given dimensions.
func (r *Recorder) Count(ctx context.Context, name string, dims map[string]string) error {
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	dimensions := make([]cwtypes.Dimension, 0, len(keys))
	for _, k := range keys {
		dimensions = append(dimensions, cwtypes.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(dims[k])})
	}

	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &r.namespace,
		MetricData: []cwtypes.MetricDatum{{
			MetricName: sdkaws.String(name),
			Dimensions: dimensions,
			Timestamp:  sdkaws.Time(r.nowFunc()),
			Unit:       cwtypes.StandardUnitCount,
			Value:      sdkaws.Float64(1),
		}},
	})
	if err != nil {
		return fmt.Errorf("put metric data %s: %w", name, err)
	}
	return nil
}
