package publish

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/huangsam/pagegate/internal/contract"
)

// GCSConfig holds configuration for GCSPublisher.
type GCSConfig struct {
	Bucket string
	Prefix string // Optional key prefix ending in "/"
}

// GCSPublisher uploads reports to a Google Cloud Storage bucket.
type GCSPublisher struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ contract.Publisher = &GCSPublisher{} // Compile-time check

// NewGCSPublisher creates a GCS publisher using application default credentials.
func NewGCSPublisher(ctx context.Context, cfg GCSConfig) (*GCSPublisher, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSPublisher{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Publish uploads data under the prefixed key and returns its gs:// URI.
func (p *GCSPublisher) Publish(ctx context.Context, key string, data []byte) (string, error) {
	objectKey := p.prefix + key
	w := p.client.Bucket(p.bucket).Object(objectKey).NewWriter(ctx)
	w.ContentType = reportContentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %s failed: %w", objectKey, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s failed: %w", objectKey, err)
	}
	return objectURI(contract.GCSScheme, p.bucket, objectKey), nil
}

// Close closes the GCS client.
func (p *GCSPublisher) Close() error {
	return p.client.Close()
}
