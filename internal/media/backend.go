package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hostel-backend/internal/config"
)

var (
	ErrNotFound    = errors.New("media not found")
	ErrInvalidName = errors.New("invalid media name")
)

// Backend abstracts local filesystem vs S3-compatible storage for uploaded
// complaint media. Keys are flat stored filenames.
type Backend interface {
	// Upload stores content at the given key, replacing any previous object.
	Upload(ctx context.Context, key string, reader io.Reader, size int64) error

	// Download returns a ReadCloser for the object content and its size.
	// Caller must close the reader. Missing objects yield ErrNotFound.
	Download(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// Name returns a human-readable backend identifier ("local", "s3").
	Name() string
}

// NewBackend builds the backend selected by configuration.
func NewBackend(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendLocal, "":
		return NewLocalBackend(cfg.UploadDir)
	case config.BackendS3:
		s := cfg.S3
		return NewS3Backend(ctx, s.Endpoint, s.AccessKey, s.SecretKey, s.Bucket, s.Region, s.Prefix)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// ---------------------------------------------------------------------------
// LocalBackend wraps os.* calls for the uploads directory
// ---------------------------------------------------------------------------

type LocalBackend struct {
	baseDir string
}

// NewLocalBackend creates baseDir if needed.
func NewLocalBackend(baseDir string) (*LocalBackend, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalBackend{baseDir: abs}, nil
}

func (b *LocalBackend) Name() string { return config.BackendLocal }

// Dir is the absolute uploads directory.
func (b *LocalBackend) Dir() string { return b.baseDir }

// resolve validates and resolves a key to an absolute filesystem path,
// preventing directory traversal outside baseDir.
func (b *LocalBackend) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return "", ErrInvalidName
	}
	full := filepath.Join(b.baseDir, key)
	if !strings.HasPrefix(full, b.baseDir+string(os.PathSeparator)) {
		return "", ErrInvalidName
	}
	return full, nil
}

func (b *LocalBackend) Upload(_ context.Context, key string, reader io.Reader, _ int64) error {
	full, err := b.resolve(key)
	if err != nil {
		return err
	}
	f, err := os.Create(full)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(full)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return f.Close()
}

func (b *LocalBackend) Download(_ context.Context, key string) (io.ReadCloser, int64, error) {
	full, err := b.resolve(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, ErrNotFound
	}
	return f, info.Size(), nil
}

func (b *LocalBackend) Delete(_ context.Context, key string) error {
	full, err := b.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (b *LocalBackend) Exists(_ context.Context, key string) (bool, error) {
	full, err := b.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
