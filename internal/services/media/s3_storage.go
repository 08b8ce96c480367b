package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

var errNoClient = errors.New("s3 client is nil")

// S3Storage presigns reads from the avatar bucket.
type S3Storage struct {
	client *minio.Client
	bucket string
}

func NewS3Storage(client *minio.Client, bucket string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

// CheckBucket confirms the avatar bucket is reachable.
func (s *S3Storage) CheckBucket(ctx context.Context) error {
	if s.client == nil {
		return errNoClient
	}
	if s.bucket == "" {
		return fmt.Errorf("avatar bucket: %w", ErrValidation)
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	switch {
	case err != nil:
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	case !exists:
		return fmt.Errorf("bucket %q not found", s.bucket)
	}
	return nil
}

// PresignGet returns a GET URL for key valid for ttl. Browsers may cache the
// object privately, never longer than the URL lives.
func (s *S3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", errNoClient
	}
	if key == "" {
		return "", fmt.Errorf("object key: %w", ErrValidation)
	}
	if ttl <= 0 {
		ttl = defaultAvatarURLTTL
	}

	params := url.Values{}
	params.Set("response-cache-control", "private, max-age="+strconv.FormatInt(int64(ttl/time.Second), 10))

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", s.bucket, key, err)
	}
	return presigned.String(), nil
}
