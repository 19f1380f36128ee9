// Package retrier provides bounded re-execution of fallible external calls
package retrier

import (
	"context"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/wb-go/wbf/retry"
)

// NewStrategy - maxRetries дополнительных попыток после первой
func NewStrategy(maxRetries int, delay time.Duration, backoff float64) retry.Strategy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff < 1 {
		backoff = 1
	}
	return retry.Strategy{
		Attempts: maxRetries + 1,
		Delay:    delay,
		Backoff:  backoff,
	}
}

// Do выполняет fn, пока она не вернёт успех или не кончатся попытки.
// Последняя ошибка возвращается без изменений. Классифицированные ошибки вызывающего
// и отмена контекста не повторяются.
func Do[T any](ctx context.Context, strategy retry.Strategy, fn func(context.Context) (T, error)) (T, error) {
	if strategy.Attempts < 1 {
		strategy.Attempts = 1
	}

	var (
		res       T
		lastErr   error
		permanent error
	)

	err := retry.Do(func() error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			permanent = ctxErr
			return nil
		}

		out, err := fn(ctx)
		if err == nil {
			res, lastErr = out, nil
			return nil
		}

		lastErr = err
		if model.IsPermanent(err) || ctx.Err() != nil {
			permanent = err
			return nil
		}
		return err
	}, strategy)

	switch {
	case permanent != nil:
		var zero T
		return zero, permanent
	case err != nil:
		var zero T
		if lastErr != nil {
			return zero, lastErr
		}
		return zero, err
	}

	return res, nil
}

// Exec - Do для операций без результата
func Exec(ctx context.Context, strategy retry.Strategy, fn func(context.Context) error) error {
	_, err := Do(ctx, strategy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
