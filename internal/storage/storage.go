package storage

import (
	"context"
	"strings"
	"time"

	"alcyxob/intern-platform/internal/logger"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the object storage operations the engine needs.
type FileStorage interface {
	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
}

// MediaResolver turns the media reference stored on a lesson into a link a
// browser can open. Absolute http(s) URLs (e.g. YouTube) pass through; anything
// else is treated as an object key in the media bucket.
type MediaResolver struct {
	files   FileStorage
	expires time.Duration
	log     *logger.Logger
}

// NewMediaResolver builds a resolver. files may be nil when no bucket is
// configured, in which case object keys resolve to nothing.
func NewMediaResolver(files FileStorage, expires time.Duration, log *logger.Logger) *MediaResolver {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	return &MediaResolver{files: files, expires: expires, log: log}
}

// Resolve never fails: an unsignable key yields "" and a warning.
func (m *MediaResolver) Resolve(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if IsExternalURL(ref) {
		return ref
	}
	if m == nil || m.files == nil {
		return ""
	}
	url, err := m.files.GeneratePresignedDownloadURL(ctx, strings.TrimPrefix(ref, "/"), m.expires)
	if err != nil {
		m.log.Warn("presigning media failed", "key", ref, "error", err)
		return ""
	}
	return url
}

// IsExternalURL reports whether ref is already an absolute web link.
func IsExternalURL(ref string) bool {
	l := strings.ToLower(ref)
	return strings.HasPrefix(l, "https://") || strings.HasPrefix(l, "http://")
}
