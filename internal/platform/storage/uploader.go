package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/brand-er1/clothology-express-sub000/internal/platform/config"
)

const defaultUploadTimeout = 30 * time.Second

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// Uploader persists generated preview images in Cloud Storage and mints
// V4 signed URLs for client access.
type Uploader struct {
	client *storage.Client
	bucket string
	ttl    time.Duration

	uploadTimeout time.Duration
}

// UploaderOption customises Uploader behaviour.
type UploaderOption func(*Uploader)

// WithUploadTimeout bounds individual object writes.
func WithUploadTimeout(d time.Duration) UploaderOption {
	return func(u *Uploader) {
		if d > 0 {
			u.uploadTimeout = d
		}
	}
}

// NewUploader constructs an Uploader bound to the configured images bucket.
func NewUploader(ctx context.Context, cfg config.StorageConfig, opts ...UploaderOption) (*Uploader, error) {
	return NewUploaderWithOptions(ctx, cfg, nil, opts...)
}

// NewUploaderWithOptions allows forwarding client options (emulator endpoints, credentials).
func NewUploaderWithOptions(ctx context.Context, cfg config.StorageConfig, clientOpts []option.ClientOption, opts ...UploaderOption) (*Uploader, error) {
	bucket := strings.TrimSpace(cfg.ImagesBucket)
	if bucket == "" {
		return nil, errors.New("storage: images bucket is required")
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}

	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	uploader := &Uploader{
		client:        client,
		bucket:        bucket,
		ttl:           ttl,
		uploadTimeout: defaultUploadTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uploader)
		}
	}
	return uploader, nil
}

// Upload writes the object and returns its gs:// path.
func (u *Uploader) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" {
		return "", errors.New("storage: object path is required")
	}
	if len(data) == 0 {
		return "", errors.New("storage: empty payload")
	}

	if u.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.uploadTimeout)
		defer cancel()
	}

	writer := u.client.Bucket(u.bucket).Object(objectPath).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "private, max-age=0"

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage: write object %s: %w", objectPath, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage: finalize object %s: %w", objectPath, err)
	}
	return fmt.Sprintf("gs://%s/%s", u.bucket, objectPath), nil
}

// SignedURL mints a V4 signed GET URL for the object.
func (u *Uploader) SignedURL(objectPath string) (string, error) {
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" {
		return "", errors.New("storage: object path is required")
	}
	url, err := u.client.Bucket(u.bucket).SignedURL(objectPath, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(u.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("storage: sign url for %s: %w", objectPath, err)
	}
	return url, nil
}

// Read fetches the object contents.
func (u *Uploader) Read(ctx context.Context, objectPath string) ([]byte, error) {
	reader, err := u.client.Bucket(u.bucket).Object(objectPath).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open object %s: %w", objectPath, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("storage: read object %s: %w", objectPath, err)
	}
	return data, nil
}

// Delete removes the object. Missing objects are not an error.
func (u *Uploader) Delete(ctx context.Context, objectPath string) error {
	err := u.client.Bucket(u.bucket).Object(objectPath).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: delete object %s: %w", objectPath, err)
	}
	return nil
}

// Close releases the underlying client.
func (u *Uploader) Close() error {
	return u.client.Close()
}
