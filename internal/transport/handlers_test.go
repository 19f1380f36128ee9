package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
)

// PNG 1x1
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func newRouter(h *PhotoHandler) *gin.Engine {
	r := gin.New()
	wrap := func(fn func(*ginext.Context)) gin.HandlerFunc {
		return func(c *gin.Context) { fn((*ginext.Context)(c)) }
	}

	r.GET("/ping", wrap(h.Ping))
	r.GET("/users", wrap(h.ListUsers))
	r.GET("/images", wrap(h.ListAssets))
	r.DELETE("/images", wrap(h.Clear))
	r.POST("/image/:userid", wrap(h.Upload))
	r.GET("/image/:assetid", wrap(h.Retrieve))
	r.GET("/image/:assetid/thumbnail", wrap(h.RetrieveThumbnail))
	r.GET("/image_labels/:assetid", wrap(h.ListLabels))
	r.GET("/images_with_label/:label", wrap(h.Search))
	return r
}

func doRequest(t *testing.T, h *PhotoHandler, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, req)

	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return w.Code, res
}

func TestPhotoHandler_Ping(t *testing.T) {
	h := NewPhotoHandler(&mockPhotoService{
		pingFn: func(ctx context.Context) (*model.PingResult, error) {
			return &model.PingResult{M: 4, N: 3}, nil
		},
	})

	code, body := doRequest(t, h, http.MethodGet, "/ping", nil)
	require.Equal(t, 200, code)
	require.Equal(t, "success", body["message"])
	require.Equal(t, float64(4), body["M"])
	require.Equal(t, float64(3), body["N"])
}

func TestPhotoHandler_Upload(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		body        any
		mock        *mockPhotoService
		wantStatus  int
		wantMessage string
		wantAssetID float64
	}{
		{
			name: "success",
			path: "/image/80001",
			body: map[string]string{"local_filename": "boat.png", "data": tinyPNG},
			mock: &mockPhotoService{
				uploadFn: func(ctx context.Context, in *model.UploadData) (int64, error) {
					require.Equal(t, int64(80001), in.UserID)
					require.Equal(t, "boat.png", in.LocalFilename)
					require.NotEmpty(t, in.Content)
					return 1001, nil
				},
			},
			wantStatus:  200,
			wantMessage: "success",
			wantAssetID: 1001,
		},
		{
			name: "img_str alias",
			path: "/image/80001",
			body: map[string]string{"local_filename": "boat.png", "img_str": tinyPNG},
			mock: &mockPhotoService{
				uploadFn: func(ctx context.Context, in *model.UploadData) (int64, error) {
					return 1002, nil
				},
			},
			wantStatus:  200,
			wantMessage: "success",
			wantAssetID: 1002,
		},
		{
			name: "unknown user",
			path: "/image/99999",
			body: map[string]string{"local_filename": "boat.png", "data": tinyPNG},
			mock: &mockPhotoService{
				uploadFn: func(ctx context.Context, in *model.UploadData) (int64, error) {
					return -1, model.ErrNoSuchUser
				},
			},
			wantStatus:  400,
			wantMessage: "no such userid",
			wantAssetID: -1,
		},
		{
			name: "internal failure",
			path: "/image/80001",
			body: map[string]string{"local_filename": "boat.png", "data": tinyPNG},
			mock: &mockPhotoService{
				uploadFn: func(ctx context.Context, in *model.UploadData) (int64, error) {
					return -1, model.ErrCommon500.Wrap(errors.New("s3 down"))
				},
			},
			wantStatus:  500,
			wantMessage: model.ErrCommon500.Msg,
			wantAssetID: -1,
		},
		{
			name:        "bad userid",
			path:        "/image/abc",
			body:        map[string]string{"local_filename": "boat.png", "data": tinyPNG},
			mock:        &mockPhotoService{},
			wantStatus:  400,
			wantMessage: model.ErrInvalidID.Msg,
			wantAssetID: -1,
		},
		{
			name:        "bad base64",
			path:        "/image/80001",
			body:        map[string]string{"local_filename": "boat.png", "data": "***"},
			mock:        &mockPhotoService{},
			wantStatus:  400,
			wantMessage: model.ErrEmptyImage.Msg,
			wantAssetID: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doRequest(t, NewPhotoHandler(tt.mock), http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, code)
			require.Equal(t, tt.wantMessage, body["message"])
			require.Equal(t, tt.wantAssetID, body["assetid"])
		})
	}
}

func TestPhotoHandler_Retrieve(t *testing.T) {
	h := NewPhotoHandler(&mockPhotoService{
		retrieveFn: func(ctx context.Context, assetID int64) (*model.AssetContent, error) {
			if assetID != 1001 {
				return nil, model.ErrNoSuchAsset
			}
			return &model.AssetContent{UserID: 80001, LocalName: "boat.png", Data: []byte("img")}, nil
		},
	})

	code, body := doRequest(t, h, http.MethodGet, "/image/1001", nil)
	require.Equal(t, 200, code)
	require.Equal(t, float64(80001), body["userid"])
	require.Equal(t, "boat.png", body["local_filename"])
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("img")), body["data"])

	code, body = doRequest(t, h, http.MethodGet, "/image/42", nil)
	require.Equal(t, 400, code)
	require.Equal(t, "no such assetid", body["message"])
	require.Equal(t, float64(-1), body["userid"])
}

func TestPhotoHandler_RetrieveThumbnail_NotReady(t *testing.T) {
	h := NewPhotoHandler(&mockPhotoService{
		retrieveThumbnailFn: func(ctx context.Context, assetID int64) (*model.AssetContent, error) {
			return nil, model.ErrThumbnailNotReady
		},
	})

	code, body := doRequest(t, h, http.MethodGet, "/image/1001/thumbnail", nil)
	require.Equal(t, 404, code)
	require.Equal(t, "thumbnail not ready", body["message"])
}

func TestPhotoHandler_ListAssets(t *testing.T) {
	var gotFilter *int64
	h := NewPhotoHandler(&mockPhotoService{
		listAssetsFn: func(ctx context.Context, userID *int64) ([]model.Asset, error) {
			gotFilter = userID
			return nil, nil
		},
	})

	code, body := doRequest(t, h, http.MethodGet, "/images?userid=80002", nil)
	require.Equal(t, 200, code)
	require.NotNil(t, gotFilter)
	require.Equal(t, int64(80002), *gotFilter)
	require.Equal(t, []any{}, body["data"])

	code, _ = doRequest(t, h, http.MethodGet, "/images", nil)
	require.Equal(t, 200, code)
	require.Nil(t, gotFilter)

	code, _ = doRequest(t, h, http.MethodGet, "/images?userid=abc", nil)
	require.Equal(t, 400, code)
}

func TestPhotoHandler_ListLabels(t *testing.T) {
	h := NewPhotoHandler(&mockPhotoService{
		listLabelsFn: func(ctx context.Context, assetID int64) ([]model.Label, error) {
			if assetID == 7 {
				return nil, model.ErrNoSuchAsset
			}
			return []model.Label{{AssetID: assetID, Name: "Boat", Confidence: 99}}, nil
		},
	})

	code, body := doRequest(t, h, http.MethodGet, "/image_labels/1001", nil)
	require.Equal(t, 200, code)
	require.Equal(t, []any{map[string]any{"label": "Boat", "confidence": float64(99)}}, body["data"])

	code, body = doRequest(t, h, http.MethodGet, "/image_labels/7", nil)
	require.Equal(t, 400, code)
	require.Equal(t, "no such assetid", body["message"])
	require.Equal(t, []any{}, body["data"])
}

func TestPhotoHandler_Search(t *testing.T) {
	h := NewPhotoHandler(&mockPhotoService{
		searchFn: func(ctx context.Context, pattern string) ([]model.SearchHit, error) {
			require.Equal(t, "boa", pattern)
			return []model.SearchHit{{AssetID: 1001, Name: "Boat", Confidence: 99}}, nil
		},
	})

	code, body := doRequest(t, h, http.MethodGet, "/images_with_label/boa", nil)
	require.Equal(t, 200, code)
	require.Equal(t, []any{map[string]any{"assetid": float64(1001), "label": "Boat", "confidence": float64(99)}}, body["data"])
}

func TestPhotoHandler_Clear(t *testing.T) {
	h := NewPhotoHandler(&mockPhotoService{
		clearFn: func(ctx context.Context) error { return nil },
	})

	code, body := doRequest(t, h, http.MethodDelete, "/images", nil)
	require.Equal(t, 200, code)
	require.Equal(t, map[string]any{"message": "success"}, body)
}

func TestPhotoHandler_ListUsers_Error(t *testing.T) {
	h := NewPhotoHandler(&mockPhotoService{
		listUsersFn: func(ctx context.Context) ([]model.User, error) {
			return nil, model.ErrCommon500
		},
	})

	code, body := doRequest(t, h, http.MethodGet, "/users", nil)
	require.Equal(t, 500, code)
	require.Equal(t, model.ErrCommon500.Msg, body["message"])
}
