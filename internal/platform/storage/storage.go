// Package storage provides durable object storage for rendered reports.
// It defines the ObjectStore interface, a Google Cloud Storage
// implementation, and a thread-safe in-memory implementation for tests and
// development.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	gcs "cloud.google.com/go/storage"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the contract the delivery stage depends on. Implementations
// must be safe for concurrent use from multiple pipeline runs.
type ObjectStore interface {
	// Upload copies the local file to the configured bucket under key and
	// returns its public URL.
	Upload(ctx context.Context, localPath, key string) (string, error)
	// Download fetches bucket/key into destDir and returns the local path.
	Download(ctx context.Context, bucket, key, destDir string) (string, error)
}

// PublicURL returns the canonical public URL for a bucket object.
func PublicURL(bucket, key string) string {
	return "https://storage.googleapis.com/" + path.Join(bucket, key)
}

// NormalizeURL rewrites gs:// references to their public https form and
// passes other references through unchanged.
func NormalizeURL(ref string) string {
	if strings.HasPrefix(ref, "gs://") {
		return "https://storage.googleapis.com/" + strings.TrimPrefix(ref, "gs://")
	}
	return ref
}

// ParseGSURI splits a gs://bucket/key reference. ok is false for anything
// else.
func ParseGSURI(ref string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(ref, "gs://") {
		return "", "", false
	}
	rest := strings.TrimPrefix(ref, "gs://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ---------------------------------------------------------------------------
// Google Cloud Storage implementation
// ---------------------------------------------------------------------------

// GCSStore stores objects in a fixed bucket under a key prefix.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *GCSStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	objectKey := s.key(key)
	w := s.client.Bucket(s.bucket).Object(objectKey).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", objectKey, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", objectKey, err)
	}
	return PublicURL(s.bucket, objectKey), nil
}

func (s *GCSStore) Download(ctx context.Context, bucket, key, destDir string) (string, error) {
	r, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return "", ErrObjectNotFound
		}
		return "", fmt.Errorf("open %s/%s: %w", bucket, key, err)
	}
	defer r.Close()

	local := filepath.Join(destDir, filepath.Base(key))
	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", local, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(local)
		return "", fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	return local, nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

// MemStore is an in-memory ObjectStore for tests and development.
type MemStore struct {
	bucket string
	prefix string

	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemStore(bucket, prefix string) *MemStore {
	return &MemStore{bucket: bucket, prefix: prefix, objects: make(map[string][]byte)}
}

func (s *MemStore) Upload(_ context.Context, localPath, key string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	objectKey := key
	if s.prefix != "" {
		objectKey = path.Join(s.prefix, key)
	}

	s.mu.Lock()
	s.objects[s.bucket+"/"+objectKey] = data
	s.mu.Unlock()

	return PublicURL(s.bucket, objectKey), nil
}

func (s *MemStore) Download(_ context.Context, bucket, key, destDir string) (string, error) {
	s.mu.RLock()
	data, ok := s.objects[bucket+"/"+key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}

	local := filepath.Join(destDir, filepath.Base(key))
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return "", err
	}
	return local, nil
}

// Object returns a stored object's bytes, for test assertions.
func (s *MemStore) Object(bucket, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[bucket+"/"+key]
	return data, ok
}
