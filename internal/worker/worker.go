// Package worker renders thumbnails for freshly ingested assets
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/UnendingLoop/PhotoApp/internal/events"
	"github.com/UnendingLoop/PhotoApp/internal/imageproc"
	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/UnendingLoop/PhotoApp/internal/retrier"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// ThumbStorage - то, что воркеру нужно от хранилища
type ThumbStorage interface {
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// Committer - подтверждение обработанного сообщения, его выполняет wbf kafka.Consumer
type Committer interface {
	Commit(ctx context.Context, msg kafkago.Message) error
}

type Worker struct {
	storage  ThumbStorage
	queue    <-chan kafkago.Message
	consumer Committer
	size     int
	strategy retry.Strategy
}

func NewWorkerInstance(strg ThumbStorage, q <-chan kafkago.Message, cons Committer, size int, strategy retry.Strategy) *Worker {
	return &Worker{storage: strg, queue: q, consumer: cons, size: size, strategy: strategy}
}

func (w *Worker) StartWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				zlog.Logger.Info().Msg("Queue channel closed, stopping worker...")
				return
			}
			if err := w.handleMessage(ctx, msg); err != nil {
				zlog.Logger.Error().Err(err).Str("key", string(msg.Key)).Msg("Thumbnail task failed")
				continue
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				zlog.Logger.Warn().Err(err).Msg("Failed to commit queue-message")
			}
		}
	}
}

// handleMessage - nil означает, что сообщение можно подтверждать.
// Битые события и ассеты, удалённые до обработки, пропускаются.
func (w *Worker) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ev, err := events.DecodeIngested(msg.Value)
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("Skipping malformed ingest event")
		return nil
	}

	err = w.processTask(ctx, ev)
	if errors.Is(err, model.ErrObjectNotFound) {
		zlog.Logger.Warn().Int64("assetid", ev.AssetID).Str("key", ev.BucketKey).Msg("Source object is gone, skipping")
		return nil
	}
	return err
}

func (w *Worker) processTask(ctx context.Context, ev model.IngestEvent) error {
	thumbKey := model.ThumbnailKey(ev.BucketKey)

	// повторная доставка: превью уже есть
	if done, err := w.exists(ctx, thumbKey); err != nil {
		return err
	} else if done {
		return nil
	}

	// достать из storage исходник
	data, err := retrier.Do(ctx, w.strategy, func(ctx context.Context) ([]byte, error) {
		src, _, err := w.storage.Get(ctx, ev.BucketKey)
		if err != nil {
			return nil, err
		}
		defer closeFileFlow(src)
		return io.ReadAll(src)
	})
	if err != nil {
		return fmt.Errorf("worker failed to fetch source image %q: %w", ev.BucketKey, err)
	}

	_, cType, err := imageproc.DetectFormat(data)
	if err != nil {
		return fmt.Errorf("worker failed to validate source image format: %w", err)
	}

	thumb, size, err := imageproc.Thumbnailer(bytes.NewReader(data), w.size)
	if err != nil {
		return fmt.Errorf("worker failed to generate thumbnail: %w", err)
	}
	thumbData, err := io.ReadAll(thumb)
	if err != nil {
		return fmt.Errorf("worker failed to buffer thumbnail: %w", err)
	}

	err = retrier.Exec(ctx, w.strategy, func(ctx context.Context) error {
		return w.storage.Put(ctx, thumbKey, size, cType, bytes.NewReader(thumbData))
	})
	if err != nil {
		return fmt.Errorf("worker failed to put thumbnail to storage: %w", err)
	}

	zlog.Logger.Info().Int64("assetid", ev.AssetID).Str("key", thumbKey).Msg("Thumbnail stored")
	return nil
}

func (w *Worker) exists(ctx context.Context, key string) (bool, error) {
	rc, _, err := w.storage.Get(ctx, key)
	switch {
	case err == nil:
		closeFileFlow(rc)
		return true, nil
	case errors.Is(err, model.ErrObjectNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("worker failed to check thumbnail %q: %w", key, err)
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}

	if err := res.Close(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Worker failed to close fileflow")
	}
}
