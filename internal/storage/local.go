package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects as files under Dir/<bucket>/<key>. The content type
// is kept next to the object in a ".ctype" file.
type Local struct {
	Dir     string
	BaseURL string
}

func NewLocal(dir, publicURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &Local{Dir: dir, BaseURL: strings.TrimRight(publicURL, "/") + "/blobs"}, nil
}

func (l *Local) path(bucket, key string) (string, error) {
	if !validKey(bucket) || strings.Contains(bucket, "/") || !validKey(key) {
		return "", fmt.Errorf("storage: invalid object %s/%s", bucket, key)
	}
	return filepath.Join(l.Dir, bucket, filepath.FromSlash(key)), nil
}

func (l *Local) Put(_ context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	p, err := l.path(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s/%s: %w", bucket, key, err)
	}
	if err := os.WriteFile(p+".ctype", []byte(contentType), 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s/%s: %w", bucket, key, err)
	}
	return l.URL(bucket, key), nil
}

func (l *Local) Get(_ context.Context, bucket, key string) ([]byte, string, error) {
	p, err := l.path(bucket, key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotExist
	}
	if err != nil {
		return nil, "", fmt.Errorf("storage: read %s/%s: %w", bucket, key, err)
	}
	ctype, _ := os.ReadFile(p + ".ctype")
	if len(ctype) == 0 {
		ctype = []byte("application/octet-stream")
	}
	return data, string(ctype), nil
}

// Delete removes the object; deleting a missing object is not an error.
func (l *Local) Delete(_ context.Context, bucket, key string) error {
	p, err := l.path(bucket, key)
	if err != nil {
		return err
	}
	for _, f := range []string{p, p + ".ctype"} {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: delete %s/%s: %w", bucket, key, err)
		}
	}
	return nil
}

func (l *Local) URL(bucket, key string) string {
	return l.BaseURL + "/" + bucket + "/" + key
}
