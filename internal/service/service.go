// Package service provides business-logic for the app
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/UnendingLoop/PhotoApp/internal/keygen"
	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/UnendingLoop/PhotoApp/internal/mwlogger"
	"github.com/UnendingLoop/PhotoApp/internal/repository"
	"github.com/UnendingLoop/PhotoApp/internal/retrier"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"
)

type PhotoService struct {
	repo      repository.PhotoRepo
	storage   PhotoStorage
	detector  LabelDetector
	publisher EventPublisher
	opts      Options
}

func NewPhotoService(repo repository.PhotoRepo, strg PhotoStorage, det LabelDetector, pub EventPublisher, opts Options) *PhotoService {
	return &PhotoService{
		repo:      repo,
		storage:   strg,
		detector:  det,
		publisher: pub,
		opts:      opts,
	}
}

// PhotoStorage - контракт для работы с хранилищем
type PhotoStorage interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	DeleteMany(ctx context.Context, keys []string) error
	Count(ctx context.Context) (int, error)
}

// LabelDetector - контракт внешнего сервиса распознавания
type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte, maxLabels int, minConfidence float32) ([]model.DetectedLabel, error)
}

// EventPublisher - контракт для публикации событий в очередь
type EventPublisher interface {
	PublishIngested(ctx context.Context, ev model.IngestEvent) error
}

// Upload - конвейер загрузки: владелец -> хранилище -> (запись asset || детекция) -> метки.
// Каждый внешний шаг повторяется отдельно. Уже закоммиченный asset не откатывается,
// если детекция или запись меток упали, а объект в хранилище не удаляется.
// Тело запроса проверяется раньше владельца: на плохую картинку ответ 400 без обращений к базе.
func (s PhotoService) Upload(ctx context.Context, in *model.UploadData) (int64, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if err := validateUpload(in); err != nil {
		return -1, err
	}
	logger = logger.With().Int64("userid", in.UserID).Logger()

	conn := newConnHolder(s.repo, logger)
	defer conn.release()

	if _, err := retrier.Do(ctx, s.opts.Retry, conn.session); err != nil {
		return -1, s.fail(logger, err, "acquire connection")
	}

	// 1. владелец должен существовать и быть единственным
	owner, err := retrier.Do(ctx, s.opts.Retry, withSession(conn, func(ctx context.Context, sess repository.Session) (model.User, error) {
		return lookupOwner(ctx, sess, in.UserID)
	}))
	if err != nil {
		return -1, s.fail(logger, err, "validate owner")
	}

	// 2. кладем в хранилище под уникальным ключом; повтор идёт под тем же ключом
	key := keygen.ObjectKey(owner.Username, in.LocalFilename)
	logger = logger.With().Str("key", key).Logger()

	err = retrier.Exec(ctx, s.opts.Retry, func(ctx context.Context) error {
		return s.storage.Put(ctx, key, int64(len(in.Content)), in.ContentType, bytes.NewReader(in.Content))
	})
	if err != nil {
		return -1, s.fail(logger, err, "store object")
	}

	// 3. регистрация в базе и детекция меток идут параллельно, ждём обе
	var (
		assetID  int64
		detected []model.DetectedLabel
		g        errgroup.Group
	)

	g.Go(func() error {
		id, err := retrier.Do(ctx, s.opts.Retry, withSession(conn, func(ctx context.Context, sess repository.Session) (int64, error) {
			return sess.InsertAsset(ctx, &model.Asset{UserID: owner.UserID, LocalName: in.LocalFilename, BucketKey: key})
		}))
		if err != nil {
			logger.Error().Err(err).Str("step", "register asset").Msg("Failed to register asset in DB")
			return fmt.Errorf("register asset: %w", err)
		}
		assetID = id
		return nil
	})

	g.Go(func() error {
		labels, err := retrier.Do(ctx, s.opts.Retry, func(ctx context.Context) ([]model.DetectedLabel, error) {
			return s.detector.DetectLabels(ctx, in.Content, s.opts.MaxLabels, s.opts.MinConfidence)
		})
		if err != nil {
			logger.Error().Err(err).Str("step", "detect labels").Msg("Failed to detect labels")
			return fmt.Errorf("detect labels: %w", err)
		}
		detected = labels
		return nil
	})

	if err := g.Wait(); err != nil {
		if assetID > 0 {
			logger.Warn().Int64("assetid", assetID).Msg("Asset committed without labels")
		}
		return -1, s.fail(logger, err, "fan-out")
	}
	logger = logger.With().Int64("assetid", assetID).Logger()

	// 4. все метки одной транзакцией
	labels := make([]model.Label, 0, len(detected))
	for _, d := range detected {
		labels = append(labels, d.ToLabel(assetID))
	}

	_, err = retrier.Do(ctx, s.opts.Retry, withSession(conn, func(ctx context.Context, sess repository.Session) (struct{}, error) {
		return struct{}{}, sess.InsertLabels(ctx, assetID, labels)
	}))
	if err != nil {
		logger.Warn().Msg("Asset committed without labels")
		return -1, s.fail(logger, err, "persist labels")
	}

	// 5. событие для воркера превью; его сбой не влияет на результат загрузки
	if s.publisher != nil {
		ev := model.IngestEvent{AssetID: assetID, UserID: owner.UserID, BucketKey: key}
		if err := s.publisher.PublishIngested(ctx, ev); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish ingest event")
		}
	}

	logger.Info().Int("labels", len(labels)).Msg("Image ingested")
	return assetID, nil
}

func (s PhotoService) ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	res, err := retrier.Do(ctx, s.opts.Retry, func(ctx context.Context) ([]model.Asset, error) {
		return s.repo.ListAssets(ctx, userID)
	})
	if err != nil {
		return nil, s.fail(logger, err, "list assets")
	}
	return res, nil
}

func (s PhotoService) Retrieve(ctx context.Context, assetID int64) (*model.AssetContent, error) {
	logger := mwlogger.LoggerFromContext(ctx).With().Int64("assetid", assetID).Logger()

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return nil, s.fail(logger, err, "find asset")
	}

	data, cType, err := s.loadObject(ctx, asset.BucketKey)
	if err != nil {
		return nil, s.fail(logger, err, "load object")
	}

	return &model.AssetContent{
		UserID:      asset.UserID,
		LocalName:   asset.LocalName,
		ContentType: cType,
		Data:        data,
	}, nil
}

// RetrieveThumbnail - превью появляется асинхронно, после обработки воркером
func (s PhotoService) RetrieveThumbnail(ctx context.Context, assetID int64) (*model.AssetContent, error) {
	logger := mwlogger.LoggerFromContext(ctx).With().Int64("assetid", assetID).Logger()

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return nil, s.fail(logger, err, "find asset")
	}

	data, cType, err := s.loadObject(ctx, model.ThumbnailKey(asset.BucketKey))
	if err != nil {
		if errors.Is(err, model.ErrObjectNotFound) {
			return nil, model.ErrThumbnailNotReady
		}
		return nil, s.fail(logger, err, "load thumbnail")
	}

	return &model.AssetContent{
		UserID:      asset.UserID,
		LocalName:   asset.LocalName,
		ContentType: cType,
		Data:        data,
	}, nil
}

func (s PhotoService) ListLabels(ctx context.Context, assetID int64) ([]model.Label, error) {
	logger := mwlogger.LoggerFromContext(ctx).With().Int64("assetid", assetID).Logger()

	if _, err := s.findAsset(ctx, assetID); err != nil {
		return nil, s.fail(logger, err, "find asset")
	}

	res, err := retrier.Do(ctx, s.opts.Retry, func(ctx context.Context) ([]model.Label, error) {
		return s.repo.ListLabels(ctx, assetID)
	})
	if err != nil {
		return nil, s.fail(logger, err, "list labels")
	}
	return res, nil
}

func (s PhotoService) Search(ctx context.Context, pattern string) ([]model.SearchHit, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	escaped := escapeLike(pattern)

	res, err := retrier.Do(ctx, s.opts.Retry, func(ctx context.Context) ([]model.SearchHit, error) {
		return s.repo.SearchLabels(ctx, escaped)
	})
	if err != nil {
		return nil, s.fail(logger, err, "search labels")
	}
	return res, nil
}

// Clear очищает базу одной транзакцией и только потом, без гарантий, удаляет объекты.
// Ошибка удаления объектов логируется и наружу не выходит.
func (s PhotoService) Clear(ctx context.Context) error {
	logger := mwlogger.LoggerFromContext(ctx)

	conn := newConnHolder(s.repo, logger)
	defer conn.release()

	if _, err := retrier.Do(ctx, s.opts.Retry, conn.session); err != nil {
		return s.fail(logger, err, "acquire connection")
	}

	keys, err := retrier.Do(ctx, s.opts.Retry, withSession(conn, func(ctx context.Context, sess repository.Session) ([]string, error) {
		return sess.ClearAll(ctx, s.opts.RestartID)
	}))
	if err != nil {
		return s.fail(logger, err, "clear tables")
	}

	toDelete := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		toDelete = append(toDelete, k, model.ThumbnailKey(k))
	}

	// база уже очищена - отмена запроса не должна прерывать уборку хранилища
	if err := s.storage.DeleteMany(context.WithoutCancel(ctx), toDelete); err != nil {
		logger.Warn().Err(err).Int("objects", len(toDelete)).Msg("Failed to delete some objects after clearing DB")
	}

	logger.Info().Int("assets", len(keys)).Msg("All images cleared")
	return nil
}

func (s PhotoService) Ping(ctx context.Context) (*model.PingResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	m, err := retrier.Do(ctx, s.opts.Retry, s.storage.Count)
	if err != nil {
		return nil, s.fail(logger, err, "count objects")
	}

	n, err := retrier.Do(ctx, s.opts.Retry, s.repo.CountUsers)
	if err != nil {
		return nil, s.fail(logger, err, "count users")
	}

	return &model.PingResult{M: m, N: n}, nil
}

func (s PhotoService) ListUsers(ctx context.Context) ([]model.User, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	res, err := retrier.Do(ctx, s.opts.Retry, s.repo.ListUsers)
	if err != nil {
		return nil, s.fail(logger, err, "list users")
	}
	return res, nil
}

func (s PhotoService) findAsset(ctx context.Context, assetID int64) (model.Asset, error) {
	return retrier.Do(ctx, s.opts.Retry, func(ctx context.Context) (model.Asset, error) {
		assets, err := s.repo.FindAssets(ctx, assetID)
		if err != nil {
			return model.Asset{}, err
		}
		switch len(assets) {
		case 0:
			return model.Asset{}, model.ErrNoSuchAsset
		case 1:
			return assets[0], nil
		default:
			return model.Asset{}, model.ErrDuplicateAsset.Wrapf("%d rows for assetid %d", len(assets), assetID)
		}
	})
}

func (s PhotoService) loadObject(ctx context.Context, key string) ([]byte, string, error) {
	type object struct {
		data  []byte
		cType string
	}

	obj, err := retrier.Do(ctx, s.opts.Retry, func(ctx context.Context) (object, error) {
		rc, cType, err := s.storage.Get(ctx, key)
		if err != nil {
			return object{}, err
		}
		defer closeFileFlow(rc)

		data, err := io.ReadAll(rc)
		if err != nil {
			return object{}, fmt.Errorf("read object %q: %w", key, err)
		}
		return object{data: data, cType: cType}, nil
	})
	if err != nil {
		return nil, "", err
	}

	return obj.data, obj.cType, nil
}

func lookupOwner(ctx context.Context, sess repository.Session, userID int64) (model.User, error) {
	users, err := sess.FindUsers(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	switch len(users) {
	case 0:
		return model.User{}, model.ErrNoSuchUser
	case 1:
		return users[0], nil
	default:
		return model.User{}, model.ErrDuplicateUser.Wrapf("%d rows for userid %d", len(users), userID)
	}
}

// fail логирует причину и отдаёт наружу только классифицированную ошибку
func (s PhotoService) fail(logger zlog.Zerolog, err error, step string) error {
	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		logger.Error().Err(err).Str("step", step).Msg("Operation failed")
		return model.ErrCommon500.Wrap(err)
	}

	switch appErr.Kind {
	case model.KindInvariant:
		logger.Error().Err(appErr.Err).Bool("invariant", true).Str("step", step).Msg("Uniqueness invariant violated")
	case model.KindInternal:
		logger.Error().Err(appErr.Err).Str("step", step).Msg("Operation failed")
	default:
		logger.Info().Str("step", step).Str("reason", appErr.Msg).Msg("Rejected request")
	}
	return appErr
}

func closeSession(logger zlog.Zerolog, sess repository.Session) {
	if err := sess.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to release DB connection")
	}
}

func closeFileFlow(rc io.ReadCloser) {
	if rc == nil {
		return
	}
	if err := rc.Close(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Service failed to close fileflow")
	}
}
