// Package storage provides the S3-compatible object store backend behind the
// upload gateway. Objects are written with public-read semantics and addressed
// through a configured public base URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"scribe/internal/config"
)

// Config holds the object store connection settings. It is loaded once at
// process start and passed explicitly into New, so tests can substitute a
// fake Service without touching the environment.
type Config struct {
	Endpoint  string // host:port of the S3-compatible endpoint
	PublicURL string // base URL under which stored objects are publicly reachable
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// LoadConfig reads the storage configuration from the environment.
func LoadConfig() (*Config, error) {
	if err := config.ValidateEnv([]string{
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET",
	}); err != nil {
		return nil, err
	}

	endpoint := os.Getenv("S3_ENDPOINT")
	cfg := &Config{
		Endpoint:  endpoint,
		PublicURL: config.GetEnvOrDefault("S3_PUBLIC_URL", ""),
		Region:    config.GetEnvOrDefault("S3_REGION", "us-east-1"),
		Bucket:    os.Getenv("S3_BUCKET"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		UseSSL:    os.Getenv("S3_USE_SSL") == "true",
	}

	// Fall back to path-style addressing off the raw endpoint when no CDN or
	// public alias is configured.
	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("%s://%s/%s", cfg.protocol(), endpoint, cfg.Bucket)
	}

	return cfg, nil
}

func (c *Config) protocol() string {
	if c.UseSSL {
		return "https"
	}
	return "http"
}

// Service defines the operations the gateway needs from the object store.
type Service interface {
	// Upload writes the object and returns its public URL.
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)

	// Delete removes an object from storage.
	Delete(ctx context.Context, key string) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context) error

	// Health checks if the storage service is accessible.
	Health(ctx context.Context) error
}

type service struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// New creates a storage service from the given config. The custom endpoint
// resolver and path-style addressing make the client MinIO-compatible.
func New(ctx context.Context, cfg *Config) (Service, error) {
	endpointURL := fmt.Sprintf("%s://%s", cfg.protocol(), cfg.Endpoint)

	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               endpointURL,
				SigningRegion:     cfg.Region,
				HostnameImmutable: true,
			}, nil
		},
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	s := &service{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}

	if err := s.EnsureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return s, nil
}

// Upload writes the object and returns its public URL.
func (s *service) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}
	if contentType == "" {
		return "", fmt.Errorf("content type cannot be empty")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

// Delete removes an object from storage.
func (s *service) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("object key cannot be empty")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// EnsureBucketExists creates the bucket if it doesn't already exist.
func (s *service) EnsureBucketExists(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Health checks if the storage service is accessible.
func (s *service) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}

	return nil
}
