package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"hostel-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBackend_Lifecycle(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	b, err := NewLocalBackend(dir)
	require.NoError(t, err)
	assert.Equal(t, "local", b.Name())

	require.NoError(t, b.Upload(ctx, "20240501120000_tap.jpg", strings.NewReader("jpeg bytes"), 10))

	ok, err := b.Exists(ctx, "20240501120000_tap.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, size, err := b.Download(ctx, "20240501120000_tap.jpg")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, int64(10), size)
	assert.Equal(t, "jpeg bytes", string(body))

	require.NoError(t, b.Delete(ctx, "20240501120000_tap.jpg"))
	_, err = os.Stat(filepath.Join(dir, "20240501120000_tap.jpg"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, b.Delete(ctx, "20240501120000_tap.jpg"))

	_, _, err = b.Download(ctx, "20240501120000_tap.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBackend_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	b, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../secret", "a/b.jpg", `a\b.jpg`, ".."} {
		_, _, err := b.Download(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidName, key)
		assert.ErrorIs(t, b.Upload(ctx, key, strings.NewReader("x"), 1), ErrInvalidName, key)
	}
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(context.Background(), config.StorageConfig{Backend: "local", UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "local", b.Name())

	_, err = NewBackend(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}

// fakeS3 is a path-style, single bucket object store good enough for the SDK.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/media/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(body)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Backend_AgainstFakeServer(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	b, err := NewS3Backend(ctx, srv.URL, "key", "secret", "media", "us-east-1", "uploads")
	require.NoError(t, err)

	require.NoError(t, b.Upload(ctx, "clip.mp4", bytes.NewReader([]byte("12345")), 5))
	assert.Contains(t, fake.objects, "uploads/clip.mp4")

	ok, err := b.Exists(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, _, err := b.Download(ctx, "clip.mp4")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "12345", string(body))

	require.NoError(t, b.Delete(ctx, "clip.mp4"))

	ok, err = b.Exists(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = b.Download(ctx, "clip.mp4")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = b.Download(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)
}
