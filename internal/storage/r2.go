package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"dairy-backend/internal/config"
)

// R2Storage uploads generated documents (payment statements, ledger
// exports) to a Cloudflare R2 bucket over the S3 API.
type R2Storage struct {
	client *s3.Client
	bucket string
}

func NewR2Storage(ctx context.Context, cfg *config.Config) (*R2Storage, error) {
	if cfg.R2.Endpoint == "" || cfg.R2.AccessKey == "" {
		return nil, fmt.Errorf("r2 storage not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2.AccessKey,
			cfg.R2.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.R2.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure r2 client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.R2.Endpoint)
	})
	return &R2Storage{client: client, bucket: cfg.R2.Bucket}, nil
}

func (r *R2Storage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
