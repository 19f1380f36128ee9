package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithRetry(3, time.Millisecond, 5*time.Millisecond)), srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Upload_OK(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/image/80001", r.URL.Path)

		var req model.UploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "boat.png", req.LocalFilename)
		require.Equal(t, base64.StdEncoding.EncodeToString([]byte("img")), req.Data)

		writeJSON(w, 200, map[string]any{"message": "success", "assetid": 1001})
	})

	id, err := c.Upload(context.Background(), 80001, "boat.png", []byte("img"))
	require.NoError(t, err)
	require.Equal(t, int64(1001), id)
}

func TestClient_CallerError(t *testing.T) {
	var calls int
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, 400, map[string]any{"message": "no such userid", "assetid": -1})
	})

	id, err := c.Upload(context.Background(), 99999, "boat.png", []byte("img"))
	require.Equal(t, int64(-1), id)
	require.ErrorIs(t, err, ErrCaller)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "no such userid", apiErr.Message)
	require.Equal(t, 1, calls)
}

func TestClient_ServerErrorNotRetried(t *testing.T) {
	var calls int
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, 500, map[string]any{"message": "something went wrong. Try again later"})
	})

	err := c.Clear(context.Background())
	require.ErrorIs(t, err, ErrServer)
	require.Equal(t, 1, calls)
}

type flakyTransport struct {
	failures int
	calls    int
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset by peer")
	}
	return f.next.RoundTrip(r)
}

func TestClient_RetriesConnectionErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NotEmpty(t, body)
		writeJSON(w, 200, map[string]any{"message": "success", "assetid": 1002})
	}))
	t.Cleanup(srv.Close)

	tr := &flakyTransport{failures: 2, next: http.DefaultTransport}
	c := New(srv.URL,
		WithHTTPClient(&http.Client{Transport: tr}),
		WithRetry(3, time.Millisecond, 5*time.Millisecond),
	)

	id, err := c.Upload(context.Background(), 80001, "boat.png", []byte("img"))
	require.NoError(t, err)
	require.Equal(t, int64(1002), id)
	require.Equal(t, 3, tr.calls)
}

func TestClient_GivesUpAfterAttempts(t *testing.T) {
	tr := &flakyTransport{failures: 10, next: http.DefaultTransport}
	c := New("http://photoapp.invalid",
		WithHTTPClient(&http.Client{Transport: tr}),
		WithRetry(3, time.Millisecond, 5*time.Millisecond),
	)

	_, err := c.Ping(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrServer)
	require.Equal(t, 3, tr.calls)
}

func TestClient_DownloadAndLabels(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/image/1001":
			writeJSON(w, 200, map[string]any{
				"message":        "success",
				"userid":         80001,
				"local_filename": "boat.png",
				"data":           base64.StdEncoding.EncodeToString([]byte("img")),
			})
		case "/image_labels/1001":
			writeJSON(w, 200, map[string]any{
				"message": "success",
				"data":    []map[string]any{{"label": "Boat", "confidence": 99}},
			})
		case "/images_with_label/a b":
			writeJSON(w, 200, map[string]any{"message": "success", "data": []any{}})
		default:
			writeJSON(w, 404, map[string]any{"message": "thumbnail not ready"})
		}
	})
	ctx := context.Background()

	d, err := c.Download(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, &Download{UserID: 80001, LocalFilename: "boat.png", Data: []byte("img")}, d)

	labels, err := c.Labels(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, []model.Label{{AssetID: 1001, Name: "Boat", Confidence: 99}}, labels)

	hits, err := c.Search(ctx, "a b")
	require.NoError(t, err)
	require.Empty(t, hits)

	_, err = c.Thumbnail(ctx, 1001)
	require.ErrorIs(t, err, ErrCaller)
}

func TestClient_ImagesFilter(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "80002", r.URL.Query().Get("userid"))
		writeJSON(w, 200, map[string]any{
			"message": "success",
			"data":    []map[string]any{{"assetid": 1001, "userid": 80002, "localname": "a.jpg", "bucketkey": "e_ricci/x-a.jpg"}},
		})
	})

	uid := int64(80002)
	res, err := c.Images(context.Background(), &uid)
	require.NoError(t, err)
	require.Equal(t, []model.Asset{{AssetID: 1001, UserID: 80002, LocalName: "a.jpg", BucketKey: "e_ricci/x-a.jpg"}}, res)
}
