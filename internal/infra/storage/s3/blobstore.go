package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"quickhost/internal/app/images"
)

type Options struct {
	Endpoint      string
	UseSSL        bool
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	PublicRead    bool
}

// Client stores listing images as objects in an S3-compatible bucket. Folders
// are key prefixes.
type Client struct {
	bucket         string
	publicBaseURL  string
	publicRead     bool
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

// NewClient configures a blob store using the provided endpoint and credentials.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	cleanEndpoint := strings.TrimSpace(opts.Endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	base := strings.TrimSpace(opts.PublicBaseURL)
	if base == "" {
		base = cleanEndpoint
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		publicRead:    opts.PublicRead,
		client:        minioClient,
		logger:        logger,
	}, nil
}

func (c *Client) Save(ctx context.Context, p string, content []byte) error {
	key := objectKey(p)
	if key == "" {
		return errors.New("s3: object key is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return err
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("s3: put object: %w", err)
	}
	c.logger.Debug("s3 object stored", "bucket", c.bucket, "key", key)
	return nil
}

// Delete removes the object at p. Folders are key prefixes, so a folder goes
// away by itself once its last object is removed and objects under it are
// never touched.
func (c *Client) Delete(ctx context.Context, p string) error {
	key := objectKey(p)
	if key == "" {
		return errors.New("s3: object key is required")
	}
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
		return fmt.Errorf("s3: remove object: %w", err)
	}
	return nil
}

func (c *Client) Exists(ctx context.Context, p string) (bool, error) {
	key := objectKey(p)
	if key == "" {
		return false, errors.New("s3: object key is required")
	}
	if _, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{}); err == nil {
		return true, nil
	} else if !isNotFound(err) {
		return false, fmt.Errorf("s3: stat object: %w", err)
	}
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for obj := range c.client.ListObjects(listCtx, c.bucket, minio.ListObjectsOptions{Prefix: key + "/", MaxKeys: 1}) {
		if obj.Err != nil {
			if isNotFound(obj.Err) {
				return false, nil
			}
			return false, fmt.Errorf("s3: list prefix: %w", obj.Err)
		}
		return true, nil
	}
	return false, nil
}

// ObjectURL returns the public URL of a stored reference.
func (c *Client) ObjectURL(ref string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucket, objectKey(ref))
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		if c.publicRead {
			c.bucketInitErr = c.allowPublicRead(ctx)
		}
	})
	return c.bucketInitErr
}

func (c *Client) allowPublicRead(ctx context.Context) error {
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, c.bucket)
	if err := c.client.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
		return fmt.Errorf("s3: set bucket policy: %w", err)
	}
	return nil
}

func objectKey(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == 404
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var _ images.BlobStore = (*Client)(nil)
