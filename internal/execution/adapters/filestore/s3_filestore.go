// Package filestore backs the `file:` reference kind's `content` path with
// S3-compatible object storage.
package filestore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FileStore reads object content addressed by bucket/key, independent of
// the file's metadata row in Postgres.
type FileStore interface {
	ReadContent(ctx context.Context, bucket, key string) (string, error)
}

// Config configures the S3 client backing a FileStore.
type Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3FileStore reads objects through aws-sdk-go-v2, mirroring the node
// runtime's S3 integration but scoped to plain content reads.
type S3FileStore struct {
	client *s3.Client
}

// NewS3FileStore loads an AWS config from the given credentials and builds
// a FileStore. An empty Endpoint uses the default AWS S3 endpoint for Region.
func NewS3FileStore(ctx context.Context, cfg Config) (*S3FileStore, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	opts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return &S3FileStore{client: s3.NewFromConfig(awsCfg, opts...)}, nil
}

// ReadContent fetches the full object body as a string.
func (s *S3FileStore) ReadContent(ctx context.Context, bucket, key string) (string, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	defer result.Body.Close()

	body, err := io.ReadAll(result.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read object body: %w", err)
	}
	return string(body), nil
}
