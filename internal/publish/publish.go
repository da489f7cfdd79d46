// Package publish uploads persisted reports to object storage.
package publish

import (
	"context"
	"fmt"

	"github.com/huangsam/pagegate/internal/contract"
)

// reportContentType is set on every uploaded object.
const reportContentType = "application/json"

// NewPublisher returns the publisher for the configured target, or nil when
// publishing is disabled.
func NewPublisher(ctx context.Context, cfg *contract.Config) (contract.Publisher, error) {
	if !cfg.PublishEnabled() {
		return nil, nil
	}
	switch cfg.PublishScheme {
	case contract.S3Scheme:
		p, err := NewS3Publisher(ctx, S3Config{
			Bucket:   cfg.PublishBucket,
			Prefix:   cfg.PublishPrefix,
			Region:   cfg.PublishRegion,
			Endpoint: cfg.PublishEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case contract.GCSScheme:
		p, err := NewGCSPublisher(ctx, GCSConfig{
			Bucket: cfg.PublishBucket,
			Prefix: cfg.PublishPrefix,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, contract.Configf("unsupported publish scheme %q", cfg.PublishScheme)
	}
}

// objectURI renders the canonical URI of an uploaded object.
func objectURI(scheme, bucket, objectKey string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, bucket, objectKey)
}
