// Package storage picks and connects the object-store backend
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/awsconf"
	"github.com/UnendingLoop/PhotoApp/internal/storage/miniostorage"
	"github.com/UnendingLoop/PhotoApp/internal/storage/s3storage"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

const (
	BackendMinio = "minio"
	BackendS3    = "s3"
)

// PhotoStorage - общий контракт обоих бэкендов
type PhotoStorage interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	DeleteMany(ctx context.Context, keys []string) error
	Count(ctx context.Context) (int, error)
}

// NewPhotoStorage подключается к выбранному бэкенду, пока не получится или не отменят ctx
func NewPhotoStorage(ctx context.Context, cfg *config.Config, delay time.Duration) (PhotoStorage, error) {
	backend := cfg.GetString("STORAGE_BACKEND")
	if backend == "" {
		backend = BackendMinio
	}
	if backend != BackendMinio && backend != BackendS3 {
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", backend)
	}

	for {
		zlog.Logger.Info().Str("backend", backend).Msg("Connecting to IMG-storage...")
		strg, err := connect(ctx, cfg, backend)
		if err == nil {
			zlog.Logger.Info().Str("backend", backend).Msg("Successfully connected IMG-storage!")
			return strg, nil
		}
		zlog.Logger.Warn().Err(err).Dur("retry_in", delay).Msg("Failed to init connection to IMG-storage")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("storage connect cancelled: %w", err)
		case <-time.After(delay):
		}
	}
}

func connect(ctx context.Context, cfg *config.Config, backend string) (PhotoStorage, error) {
	switch backend {
	case BackendMinio:
		return miniostorage.NewMinioClient(cfg)
	case BackendS3:
		awsCfg, err := awsconf.Load(ctx, cfg)
		if err != nil {
			return nil, err
		}
		endpoint := cfg.GetString("S3_ENDPOINT")
		strg, err := s3storage.New(awsCfg, cfg.GetString("BUCKET_NAME"), endpoint, endpoint != "")
		if err != nil {
			return nil, err
		}
		if err := strg.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return strg, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", backend)
	}
}
