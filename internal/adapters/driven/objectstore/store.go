// Package objectstore mirrors index snapshots to MinIO or any S3-compatible store.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ObjectStore is the subset of bucket operations the mirror needs.
// Missing objects are reported as domain.ErrNotFound.
type ObjectStore interface {
	Ping(ctx context.Context) error
	PutObject(ctx context.Context, key string, data []byte) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	UploadFile(ctx context.Context, key, path string) error
	DownloadFile(ctx context.Context, key, path string) error
}

// Config holds the S3 connection settings
type Config struct {
	Endpoint  string // host:port or URL
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// S3Store implements ObjectStore with minio-go
type S3Store struct {
	client *minio.Client
	bucket string
	region string
}

// NewS3Store creates a client for cfg. It does not contact the server.
func NewS3Store(cfg Config) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: snapshot endpoint and bucket are required", domain.ErrConfiguration)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: snapshot credentials are required", domain.ErrConfiguration)
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		useSSL = useSSL || u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot store: %v", domain.ErrConfiguration, err)
	}

	return &S3Store{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket if it does not exist
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return classify(err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return classify(err)
	}
	return nil
}

// Ping checks that the bucket is reachable
func (s *S3Store) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return classify(err)
	}
	if !exists {
		return fmt.Errorf("%w: bucket %s", domain.ErrNotFound, s.bucket)
	}
	return nil
}

func (s *S3Store) PutObject(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	return classify(err)
}

func (s *S3Store) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

func (s *S3Store) UploadFile(ctx context.Context, key, path string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, path, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return classify(err)
}

func (s *S3Store) DownloadFile(ctx context.Context, key, path string) error {
	return classify(s.client.FGetObject(ctx, s.bucket, key, path, minio.GetObjectOptions{}))
}

// classify maps missing keys and buckets to domain.ErrNotFound
func classify(err error) error {
	if err == nil {
		return nil
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%w: %s", domain.ErrNotFound, resp.Message)
		}
	}
	return fmt.Errorf("object store: %w", err)
}
