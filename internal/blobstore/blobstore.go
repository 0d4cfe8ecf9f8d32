// Package blobstore fetches uploaded file content. Files live either in an
// S3-compatible bucket (addressed by storage key) or behind a plain HTTP
// URL provided by the upload service.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docuchat/internal/config"
)

// Fetcher resolves an uploaded file's raw bytes.
type Fetcher interface {
	Fetch(ctx context.Context, storageKey, sourceURL string) ([]byte, error)
}

// HTTPFetcher downloads the blob from its source URL.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher constructs an HTTP fetcher with a sane timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: 60 * time.Second}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, _ string, sourceURL string) ([]byte, error) {
	if sourceURL == "" {
		return nil, fmt.Errorf("source url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build blob request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch blob: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch blob: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// S3Fetcher downloads the blob from an S3-compatible store by storage key,
// falling back to the source URL when the key is empty.
type S3Fetcher struct {
	client   *minio.Client
	bucket   string
	fallback *HTTPFetcher
}

// NewS3Fetcher creates a MinIO-backed fetcher from the config.
func NewS3Fetcher(cfg config.BlobStoreConfig) (*S3Fetcher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}
	return &S3Fetcher{
		client:   client,
		bucket:   cfg.Bucket,
		fallback: NewHTTPFetcher(),
	}, nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, storageKey, sourceURL string) ([]byte, error) {
	if storageKey == "" {
		return f.fallback.Fetch(ctx, storageKey, sourceURL)
	}
	obj, err := f.client.GetObject(ctx, f.bucket, storageKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get blob object: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read blob object: %w", err)
	}
	return data, nil
}

// New picks the fetcher implied by the config: S3 when an endpoint is
// configured, plain HTTP otherwise.
func New(cfg config.BlobStoreConfig) (Fetcher, error) {
	if cfg.Endpoint == "" {
		return NewHTTPFetcher(), nil
	}
	return NewS3Fetcher(cfg)
}
