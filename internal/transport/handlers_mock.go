package transport

import (
	"context"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/gin-gonic/gin"
)

type mockPhotoService struct {
	uploadFn            func(ctx context.Context, in *model.UploadData) (int64, error)
	retrieveFn          func(ctx context.Context, assetID int64) (*model.AssetContent, error)
	retrieveThumbnailFn func(ctx context.Context, assetID int64) (*model.AssetContent, error)
	listAssetsFn        func(ctx context.Context, userID *int64) ([]model.Asset, error)
	listLabelsFn        func(ctx context.Context, assetID int64) ([]model.Label, error)
	searchFn            func(ctx context.Context, pattern string) ([]model.SearchHit, error)
	clearFn             func(ctx context.Context) error
	pingFn              func(ctx context.Context) (*model.PingResult, error)
	listUsersFn         func(ctx context.Context) ([]model.User, error)
}

func (m *mockPhotoService) Upload(ctx context.Context, in *model.UploadData) (int64, error) {
	return m.uploadFn(ctx, in)
}

func (m *mockPhotoService) Retrieve(ctx context.Context, assetID int64) (*model.AssetContent, error) {
	return m.retrieveFn(ctx, assetID)
}

func (m *mockPhotoService) RetrieveThumbnail(ctx context.Context, assetID int64) (*model.AssetContent, error) {
	return m.retrieveThumbnailFn(ctx, assetID)
}

func (m *mockPhotoService) ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error) {
	return m.listAssetsFn(ctx, userID)
}

func (m *mockPhotoService) ListLabels(ctx context.Context, assetID int64) ([]model.Label, error) {
	return m.listLabelsFn(ctx, assetID)
}

func (m *mockPhotoService) Search(ctx context.Context, pattern string) ([]model.SearchHit, error) {
	return m.searchFn(ctx, pattern)
}

func (m *mockPhotoService) Clear(ctx context.Context) error {
	return m.clearFn(ctx)
}

func (m *mockPhotoService) Ping(ctx context.Context) (*model.PingResult, error) {
	return m.pingFn(ctx)
}

func (m *mockPhotoService) ListUsers(ctx context.Context) ([]model.User, error) {
	return m.listUsersFn(ctx)
}

func init() {
	gin.SetMode(gin.TestMode)
}
