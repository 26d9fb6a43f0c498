package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/cultureradar/backend/internal/domain/enums"
)

// S3Channel writes directly to object storage. Links are public URLs when a
// base URL is configured, bare object keys otherwise.
type S3Channel struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	now           func() time.Time

	ensureOnce sync.Once
	ensureErr  error
}

func NewS3Channel(client *minio.Client, bucket, publicBaseURL string) *S3Channel {
	return &S3Channel{
		client:        client,
		bucket:        strings.TrimSpace(bucket),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		now:           time.Now,
	}
}

func (c *S3Channel) EnsureBucket(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if c.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	c.ensureOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.ensureErr = err
			return
		}
		if exists {
			return
		}
		c.ensureErr = c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
	})

	if c.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", c.bucket, c.ensureErr)
	}

	return nil
}

func (c *S3Channel) Upload(ctx context.Context, owner enums.MediaOwner, ownerID int64, file File) (string, error) {
	key, err := objectKey(owner, ownerID, file.Name, c.now())
	if err != nil {
		return "", err
	}
	if file.Body == nil {
		return "", fmt.Errorf("empty file body: %w", ErrValidation)
	}
	if err := c.EnsureBucket(ctx); err != nil {
		return "", err
	}

	size := file.Size
	if size <= 0 {
		size = -1
	}
	contentType := strings.TrimSpace(file.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := c.client.PutObject(ctx, c.bucket, key, file.Body, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put object to s3: %w", err)
	}

	return c.link(key), nil
}

func (c *S3Channel) Remove(ctx context.Context, link string) error {
	key := c.keyFromLink(link)
	if c.client == nil || key == "" {
		return nil
	}
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (c *S3Channel) link(key string) string {
	if c.publicBaseURL == "" {
		return key
	}
	return c.publicBaseURL + "/" + c.bucket + "/" + key
}

func (c *S3Channel) keyFromLink(link string) string {
	if c.publicBaseURL == "" {
		return link
	}
	return strings.TrimPrefix(link, c.publicBaseURL+"/"+c.bucket+"/")
}

// objectKey keeps activity media and profile pictures under disjoint
// prefixes.
func objectKey(owner enums.MediaOwner, ownerID int64, fileName string, at time.Time) (string, error) {
	if ownerID <= 0 {
		return "", fmt.Errorf("invalid owner id: %w", ErrValidation)
	}

	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".bin"
	}
	name := at.UTC().Format("20060102T150405") + "_" + uuid.NewString() + ext

	switch owner {
	case enums.MediaOwnerActivity:
		return fmt.Sprintf("activities/%d/%s", ownerID, name), nil
	case enums.MediaOwnerUserPFP:
		return fmt.Sprintf("users/%d/pfp/%s", ownerID, name), nil
	default:
		return "", fmt.Errorf("unknown media owner %q: %w", owner, ErrValidation)
	}
}
