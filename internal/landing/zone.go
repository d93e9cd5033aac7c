package landing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/imrishuroy/go-invoice-importflow/internal/aws"
)

// MaxObjectSize caps how much of an uploaded file is read.
const MaxObjectSize = 1 << 20

var (
	// ErrObjectNotFound is returned by Get when the key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectTooLarge is returned by Get when the object exceeds MaxObjectSize.
	ErrObjectTooLarge = errors.New("object too large")
)

// Credential is a presigned PUT URL scoped to a single object key.
type Credential struct {
	URL       string
	Key       string
	ExpiresIn time.Duration
}

// Zone is the S3 bucket clients upload invoice files into.
type Zone struct {
	s3      aws.S3API
	presign aws.PresignAPI
	bucket  string
}

// NewZone returns a Zone for bucket.
func NewZone(s3Client aws.S3API, presign aws.PresignAPI, bucket string) *Zone {
	return &Zone{s3: s3Client, presign: presign, bucket: bucket}
}

// IssueWriteCredential presigns a PUT for key valid for ttl.
func (z *Zone) IssueWriteCredential(ctx context.Context, key string, ttl time.Duration) (Credential, error) {
	req, err := z.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &z.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return Credential{}, fmt.Errorf("presign put object: %w", err)
	}
	return Credential{URL: req.URL, Key: key, ExpiresIn: ttl}, nil
}

// Get reads the object stored under key.
func (z *Zone) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := z.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &z.bucket,
		Key:    &key,
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	if len(data) > MaxObjectSize {
		return nil, ErrObjectTooLarge
	}
	return data, nil
}

// Delete removes key. S3 deletes are idempotent, so deleting a missing key succeeds.
func (z *Zone) Delete(ctx context.Context, key string) error {
	_, err := z.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &z.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
