package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"inventory/domain"

	"github.com/gofiber/storage/s3/v2"
	"github.com/google/uuid"
)

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// S3 keeps photo blobs in an S3-compatible bucket.
type S3 struct {
	bucket *s3.Storage
	prefix string
}

func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	storage := s3.New(s3.Config{
		Endpoint: cfg.Endpoint,
		Bucket:   cfg.Bucket,
		Region:   cfg.Region,
		Credentials: s3.Credentials{
			AccessKey:       cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
		},
		MaxAttempts:    3,
		RequestTimeout: 10 * time.Second,
		Reset:          false,
	})

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3{bucket: storage, prefix: prefix}, nil
}

func (s *S3) Save(ctx context.Context, r io.Reader, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}
	name := uuid.NewString() + CleanExtension(ext)
	if err := s.bucket.Set(s.prefix+name, data, 0); err != nil {
		return "", fmt.Errorf("upload blob: %w", err)
	}
	return name, nil
}

func (s *S3) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := s.bucket.Get(s.prefix + name)
	if err != nil {
		return nil, fmt.Errorf("download blob: %w", err)
	}
	// The storage returns nil, nil for a missing key.
	if data == nil {
		return nil, domain.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *S3) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	return s.bucket.Delete(s.prefix + name)
}

func (s *S3) Close() error {
	return s.bucket.Close()
}
