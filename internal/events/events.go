// Package events publishes and decodes asset-ingestion events
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/wb-go/wbf/retry"
)

// Sender - контракт продюсера очереди, его выполняет wbf kafka.Producer
type Sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, value []byte) error
}

// Стратегия короткая: публикация не должна надолго задерживать ответ на загрузку
var publishStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    200 * time.Millisecond,
	Backoff:  2,
}

type Publisher struct {
	sender Sender
}

func NewPublisher(s Sender) *Publisher {
	return &Publisher{sender: s}
}

func (p *Publisher) PublishIngested(ctx context.Context, ev model.IngestEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal ingest event: %w", err)
	}

	key := []byte(strconv.FormatInt(ev.AssetID, 10))
	if err := p.sender.SendWithRetry(ctx, publishStrategy, key, value); err != nil {
		return fmt.Errorf("publish ingest event for asset %d: %w", ev.AssetID, err)
	}
	return nil
}

// NoopPublisher - ЗАГЛУШКА, когда брокер не сконфигурирован
type NoopPublisher struct{}

func (NoopPublisher) PublishIngested(context.Context, model.IngestEvent) error {
	return nil
}

// DecodeIngested разбирает сообщение из очереди
func DecodeIngested(value []byte) (model.IngestEvent, error) {
	var ev model.IngestEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return ev, fmt.Errorf("decode ingest event: %w", err)
	}
	if ev.AssetID <= 0 || ev.BucketKey == "" {
		return ev, fmt.Errorf("incomplete ingest event: %+v", ev)
	}
	return ev, nil
}
