package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Config struct {
	Region        string
	BaseEndpoint  string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// ConfigFromEnv reads S3 config from environment variables. BaseEndpoint is
// optional and allows pointing at MinIO or another S3-compatible host.
func ConfigFromEnv() Config {
	return Config{
		Region:        os.Getenv("S3_REGION"),
		BaseEndpoint:  os.Getenv("S3_BASE_ENDPOINT"),
		Bucket:        os.Getenv("S3_BUCKET"),
		AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		SecretKey:     os.Getenv("S3_SECRET_KEY"),
		PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
	}
}

// S3Store implements Store on an S3-compatible bucket.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			// MinIO and most self-hosted gateways require path-style addressing
			o.UsePathStyle = true
		}
	})
	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Store{client: client, bucket: cfg.Bucket, publicBaseURL: base}, nil
}

func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object %q: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3: delete object %q: %w", key, err)
	}
	return nil
}
