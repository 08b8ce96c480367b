package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const defaultAvatarURLTTL = 15 * time.Minute

var ErrValidation = errors.New("validation error")

type ObjectStorage interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// AvatarSigner turns stored avatar references into fetchable URLs. Absolute
// http(s) URLs are returned as-is; anything else is treated as an object key.
type AvatarSigner struct {
	storage ObjectStorage
	ttl     time.Duration
}

func NewAvatarSigner(storage ObjectStorage, ttl time.Duration) *AvatarSigner {
	if ttl <= 0 {
		ttl = defaultAvatarURLTTL
	}
	return &AvatarSigner{storage: storage, ttl: ttl}
}

func (s *AvatarSigner) SignAvatar(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	if isAbsoluteURL(ref) {
		return ref, nil
	}

	key, err := objectKey(ref)
	if err != nil {
		return "", err
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage is nil")
	}
	return s.storage.PresignGet(ctx, key, s.ttl)
}

func isAbsoluteURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func objectKey(ref string) (string, error) {
	key := strings.TrimLeft(ref, "/")
	if key == "" || strings.Contains(ref, "://") {
		return "", fmt.Errorf("avatar ref %q: %w", ref, ErrValidation)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("avatar ref %q: %w", ref, ErrValidation)
		}
	}
	return key, nil
}
