package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

// Client uploads local files to the configured bucket. It implements the
// transfer contract the upload worker depends on.
type Client struct {
	api            *minio.Client
	bucket         string
	prefix         string
	uploadTimeout  time.Duration
	requestTimeout time.Duration
	logger         *slog.Logger
}

// New constructs a Client from storage configuration. It does not touch the
// network; call EnsureBucket during daemon startup to verify connectivity.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	api, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}

	return &Client{
		api:            api,
		bucket:         cfg.Storage.Bucket,
		prefix:         cfg.Storage.Prefix,
		uploadTimeout:  time.Duration(cfg.Storage.UploadTimeout) * time.Second,
		requestTimeout: time.Duration(cfg.Storage.RequestTimeout) * time.Second,
		logger:         logging.WithComponent(logger, "objectstore"),
	}, nil
}

// EnsureBucket verifies the target bucket exists, creating it when absent.
// Both metadata calls are bounded by the storage request timeout.
func (c *Client) EnsureBucket(ctx context.Context) error {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", c.bucket, err)
	}
	c.logger.Info("bucket created", logging.String("bucket", c.bucket))
	return nil
}

// Upload transfers the file at localPath to remotePath under the configured
// bucket and prefix. The object key is fully determined by the queue row, so
// re-uploading the same row overwrites the same key rather than duplicating.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) error {
	key := c.objectKey(remotePath)

	uploadCtx := ctx
	if c.uploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, c.uploadTimeout)
		defer cancel()
	}

	info, err := c.api.FPutObject(uploadCtx, c.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}

	c.logger.Debug("object uploaded",
		logging.String(logging.FieldRemotePath, key),
		logging.Int64("size", info.Size),
	)
	return nil
}

// PresignedURL generates a temporary download URL for an uploaded object.
// The queue never stores this; UI collaborators re-derive it on demand.
func (c *Client) PresignedURL(ctx context.Context, remotePath string, expiry time.Duration) (string, error) {
	url, err := c.api.PresignedGetObject(ctx, c.bucket, c.objectKey(remotePath), expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return url.String(), nil
}

func (c *Client) objectKey(remotePath string) string {
	key := strings.TrimPrefix(remotePath, "/")
	if c.prefix == "" || strings.HasPrefix(key, c.prefix+"/") {
		return key
	}
	return c.prefix + "/" + key
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
