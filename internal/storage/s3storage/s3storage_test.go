package s3storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/require"
)

// fakeS3 - минимальный path-style S3: PUT и GET одного объекта
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	ctypes  map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/photos/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.ctypes[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", f.ctypes[key])
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T) *S3PhotoStorage {
	t.Helper()

	srv := httptest.NewServer(&fakeS3{objects: map[string][]byte{}, ctypes: map[string]string{}})
	t.Cleanup(srv.Close)

	cfg := aws.Config{
		Region:      "us-east-2",
		Credentials: credentials.NewStaticCredentialsProvider("key", "secret", ""),
	}
	strg, err := New(cfg, "photos", srv.URL, true)
	require.NoError(t, err)
	return strg
}

func TestS3PhotoStorage_PutGet(t *testing.T) {
	strg := newTestStorage(t)
	ctx := context.Background()

	data := []byte("image-bytes")
	require.NoError(t, strg.Put(ctx, "p_sarkar/x-boat.png", int64(len(data)), model.PNG, bytes.NewReader(data)))

	rc, ctype, err := strg.Get(ctx, "p_sarkar/x-boat.png")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, data, got)
	require.Equal(t, model.PNG, ctype)
}

func TestS3PhotoStorage_GetMissing(t *testing.T) {
	strg := newTestStorage(t)

	_, _, err := strg.Get(context.Background(), "nobody/none.png")
	require.ErrorIs(t, err, model.ErrObjectNotFound)
}

func TestS3PhotoStorage_New_NoBucket(t *testing.T) {
	_, err := New(aws.Config{}, "", "", false)
	require.Error(t, err)
}

func TestS3PhotoStorage_Put_NilReader(t *testing.T) {
	strg := newTestStorage(t)
	require.Error(t, strg.Put(context.Background(), "k", 0, model.PNG, nil))
}

func TestS3PhotoStorage_DeleteMany_Empty(t *testing.T) {
	strg := newTestStorage(t)
	require.NoError(t, strg.DeleteMany(context.Background(), nil))
}
