// Package miniostorage provides structure to work with minio-storage
package miniostorage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

type MinioPhotoStorage struct {
	bucket string
	client *minio.Client
}

func NewMinioClient(cfg *config.Config) (*MinioPhotoStorage, error) {
	bucket := cfg.GetString("BUCKET_NAME")

	if bucket == "" {
		bucket = "photoapp"
		zlog.Logger.Warn().Str("bucket", bucket).Msg("Bucket name is empty. Using default value")
	}

	user := cfg.GetString("MINIO_USER")
	pass := cfg.GetString("MINIO_PASS")
	addr := cfg.GetString("MINIO_CONTAINER_NAME")

	// подключаемся к минио - создаем клиента
	strg, err := minio.New(addr+":9000", &minio.Options{
		Creds:  credentials.NewStaticV4(user, pass, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	// создаем бакет если его нет
	if err := ensureBucket(context.Background(), strg, bucket); err != nil {
		return nil, fmt.Errorf("failed to create bucket %q in MinIO: %w", bucket, err)
	}

	return &MinioPhotoStorage{bucket: bucket, client: strg}, nil
}

func (s *MinioPhotoStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}

	return nil
}

// DeleteMany удаляет пачкой, отсутствующие ключи ошибкой не считаются
func (s *MinioPhotoStorage) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- minio.ObjectInfo{Key: k}
	}
	close(objects)

	var errs []error
	for rErr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if isNotFound(rErr.Err) {
			continue
		}
		errs = append(errs, fmt.Errorf("remove %q: %w", rErr.ObjectName, rErr.Err))
	}

	return errors.Join(errs...)
}

// Get - GetObject у минио ленивый, поэтому отсутствие ключа ловим на Stat
func (s *MinioPhotoStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	res, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}

	resStat, err := res.Stat()
	if err != nil {
		if cErr := res.Close(); cErr != nil {
			zlog.Logger.Warn().Err(cErr).Str("key", key).Msg("Failed to close minio object")
		}
		if isNotFound(err) {
			return nil, "", fmt.Errorf("%w: %s", model.ErrObjectNotFound, key)
		}
		return nil, "", err
	}

	return res, resStat.ContentType, nil
}

// Count - количество объектов в бакете
func (s *MinioPhotoStorage) Count(ctx context.Context) (int, error) {
	n := 0
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return 0, obj.Err
		}
		n++
	}
	return n, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
