// Package storage keeps uploaded files, email attachments and badge images
// in named buckets.
package storage

import (
	"context"
	"errors"
	"strings"
)

const (
	BucketUploads     = "uploads"
	BucketAttachments = "email-attachments"
	BucketBadges      = "badges"
)

var ErrNotExist = errors.New("storage: object does not exist")

// Store is an object store addressed by (bucket, key).
type Store interface {
	// Put writes data under key, replacing any previous object, and returns
	// its public URL.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, bucket, key string) ([]byte, string, error)
	Delete(ctx context.Context, bucket, key string) error
	URL(bucket, key string) string
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
