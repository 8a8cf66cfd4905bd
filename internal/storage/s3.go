package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/redmonkez12/neuroscreen/internal/config"
)

// ObjectStore writes screening uploads to an S3-compatible bucket.
// With an Endpoint configured it talks to MinIO; without one, AWS.
type ObjectStore struct {
	client *s3.Client
	bucket string
}

func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (*ObjectStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO serves buckets by path, not virtual host
			o.UsePathStyle = true
		}
	})

	return &ObjectStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Put streams the body to the bucket under the given key.
func (s *ObjectStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", key, err)
	}

	return nil
}

// ObjectKey generates a date-partitioned key for a screening artifact.
func ObjectKey(kind string) string {
	d := time.Now()
	return fmt.Sprintf("screenings/%s/%d/%02d/%02d/%v", kind, d.Year(), d.Month(), d.Day(), uuid.New())
}
