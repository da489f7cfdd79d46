package publish

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/huangsam/pagegate/internal/contract"
)

// S3Config holds configuration for S3Publisher.
type S3Config struct {
	Bucket   string
	Prefix   string // Optional key prefix ending in "/"
	Region   string
	Endpoint string // Optional custom endpoint (MinIO, LocalStack)
}

// s3PutAPI is the subset of the S3 client used for uploads.
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads reports to an S3 bucket.
type S3Publisher struct {
	client s3PutAPI
	bucket string
	prefix string
}

var _ contract.Publisher = &S3Publisher{} // Compile-time check

// NewS3Publisher creates an S3 publisher from the default AWS credential chain.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO/LocalStack
		}
	})

	return &S3Publisher{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Publish uploads data under the prefixed key and returns its s3:// URI.
func (p *S3Publisher) Publish(ctx context.Context, key string, data []byte) (string, error) {
	objectKey := p.prefix + key
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(reportContentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s failed: %w", objectKey, err)
	}
	return objectURI(contract.S3Scheme, p.bucket, objectKey), nil
}

// Close is a no-op; the S3 client holds no open resources.
func (p *S3Publisher) Close() error {
	return nil
}
