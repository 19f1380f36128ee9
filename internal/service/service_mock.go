package service

import (
	"context"
	"io"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/UnendingLoop/PhotoApp/internal/repository"
)

// MOCK RESPOSITORY

type mockRepo struct {
	acquireFn      func(ctx context.Context) (repository.Session, error)
	countUsersFn   func(ctx context.Context) (int, error)
	listUsersFn    func(ctx context.Context) ([]model.User, error)
	listAssetsFn   func(ctx context.Context, userID *int64) ([]model.Asset, error)
	findAssetsFn   func(ctx context.Context, assetID int64) ([]model.Asset, error)
	listLabelsFn   func(ctx context.Context, assetID int64) ([]model.Label, error)
	searchLabelsFn func(ctx context.Context, pattern string) ([]model.SearchHit, error)
}

func (m *mockRepo) Acquire(ctx context.Context) (repository.Session, error) {
	return m.acquireFn(ctx)
}

func (m *mockRepo) CountUsers(ctx context.Context) (int, error) {
	return m.countUsersFn(ctx)
}

func (m *mockRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	return m.listUsersFn(ctx)
}

func (m *mockRepo) ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error) {
	return m.listAssetsFn(ctx, userID)
}

func (m *mockRepo) FindAssets(ctx context.Context, assetID int64) ([]model.Asset, error) {
	return m.findAssetsFn(ctx, assetID)
}

func (m *mockRepo) ListLabels(ctx context.Context, assetID int64) ([]model.Label, error) {
	return m.listLabelsFn(ctx, assetID)
}

func (m *mockRepo) SearchLabels(ctx context.Context, pattern string) ([]model.SearchHit, error) {
	return m.searchLabelsFn(ctx, pattern)
}

// MOCK SESSION

type mockSession struct {
	findUsersFn    func(ctx context.Context, userID int64) ([]model.User, error)
	insertAssetFn  func(ctx context.Context, asset *model.Asset) (int64, error)
	insertLabelsFn func(ctx context.Context, assetID int64, labels []model.Label) error
	clearAllFn     func(ctx context.Context, restartID int64) ([]string, error)
	closed         int
}

func (m *mockSession) FindUsers(ctx context.Context, userID int64) ([]model.User, error) {
	return m.findUsersFn(ctx, userID)
}

func (m *mockSession) InsertAsset(ctx context.Context, asset *model.Asset) (int64, error) {
	return m.insertAssetFn(ctx, asset)
}

func (m *mockSession) InsertLabels(ctx context.Context, assetID int64, labels []model.Label) error {
	return m.insertLabelsFn(ctx, assetID, labels)
}

func (m *mockSession) ClearAll(ctx context.Context, restartID int64) ([]string, error) {
	return m.clearAllFn(ctx, restartID)
}

func (m *mockSession) Close() error {
	m.closed++
	return nil
}

// MOCK STORAGE

type mockStorage struct {
	putFn        func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
	getFn        func(ctx context.Context, key string) (io.ReadCloser, string, error)
	deleteManyFn func(ctx context.Context, keys []string) error
	countFn      func(ctx context.Context) (int, error)
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) DeleteMany(ctx context.Context, keys []string) error {
	return m.deleteManyFn(ctx, keys)
}

func (m *mockStorage) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

// MOCK DETECTOR

type mockDetector struct {
	detectFn func(ctx context.Context, image []byte, maxLabels int, minConfidence float32) ([]model.DetectedLabel, error)
}

func (m *mockDetector) DetectLabels(ctx context.Context, image []byte, maxLabels int, minConfidence float32) ([]model.DetectedLabel, error) {
	return m.detectFn(ctx, image, maxLabels, minConfidence)
}

// MOCK PUBLISHER

type mockPublisher struct {
	publishFn func(ctx context.Context, ev model.IngestEvent) error
}

func (m *mockPublisher) PublishIngested(ctx context.Context, ev model.IngestEvent) error {
	return m.publishFn(ctx, ev)
}
