package events

import (
	"context"
	"errors"
	"testing"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

type mockSender struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockSender) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}

func TestPublisher_PublishIngested(t *testing.T) {
	ev := model.IngestEvent{AssetID: 1001, UserID: 80001, BucketKey: "p_sarkar/x-a.jpg"}

	var gotKey, gotValue []byte
	p := NewPublisher(&mockSender{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			gotKey, gotValue = key, v
			return nil
		},
	})

	require.NoError(t, p.PublishIngested(context.Background(), ev))
	require.Equal(t, "1001", string(gotKey))

	decoded, err := DecodeIngested(gotValue)
	require.NoError(t, err)
	require.Equal(t, ev, decoded)
}

func TestPublisher_SendError(t *testing.T) {
	p := NewPublisher(&mockSender{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			return errors.New("broker down")
		},
	})

	require.Error(t, p.PublishIngested(context.Background(), model.IngestEvent{AssetID: 1}))
}

func TestDecodeIngested_Invalid(t *testing.T) {
	_, err := DecodeIngested([]byte("{"))
	require.Error(t, err)

	_, err = DecodeIngested([]byte(`{"assetid":1001}`))
	require.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	require.NoError(t, NoopPublisher{}.PublishIngested(context.Background(), model.IngestEvent{}))
}
