package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	appconfig "henna_gallery/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStorage uploads binary content under a key and hands back a stable
// retrieval URL. Implemented by Storage; services depend on the interface
// so tests can substitute it.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Storage talks to any S3-compatible endpoint (R2, MinIO, AWS).
type Storage struct {
	client     *s3.Client
	bucket     string
	publicHost string
}

func New(ctx context.Context, cfg appconfig.S3Config) (*Storage, error) {
	const op = "storage.s3.New"

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
				Source:            aws.EndpointSourceCustom,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &Storage{
		client:     client,
		bucket:     cfg.Bucket,
		publicHost: strings.TrimSuffix(cfg.PublicHost, "/"),
	}, nil
}

// Put uploads the object and returns its public URL.
func (s *Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	const op = "storage.s3.Put"

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.ObjectURL(key), nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "storage.s3.Delete"

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ObjectURL builds the retrieval URL without touching the network.
func (s *Storage) ObjectURL(key string) string {
	return s.publicHost + "/" + strings.TrimPrefix(key, "/")
}
