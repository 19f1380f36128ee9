package worker

import (
	"context"
	"io"

	kafkago "github.com/segmentio/kafka-go"
)

type mockStorage struct {
	getFn func(ctx context.Context, key string) (io.ReadCloser, string, error)
	putFn func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

//----------------------------------

type mockCommitter struct {
	committed []kafkago.Message
}

func (m *mockCommitter) Commit(ctx context.Context, msg kafkago.Message) error {
	m.committed = append(m.committed, msg)
	return nil
}
