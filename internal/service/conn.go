package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"

	"github.com/UnendingLoop/PhotoApp/internal/repository"
	"github.com/wb-go/wbf/zlog"
)

// connHolder - соединение одного запроса. Оборванное соединение закрывается,
// следующий вызов берёт новое из пула.
type connHolder struct {
	mu     sync.Mutex
	repo   repository.PhotoRepo
	sess   repository.Session
	logger zlog.Zerolog
}

func newConnHolder(repo repository.PhotoRepo, logger zlog.Zerolog) *connHolder {
	return &connHolder{repo: repo, logger: logger}
}

func (h *connHolder) session(ctx context.Context) (repository.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sess == nil {
		sess, err := h.repo.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		h.sess = sess
	}
	return h.sess, nil
}

// release закрывает текущее соединение; вызывается и после обрыва, и в конце запроса
func (h *connHolder) release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sess != nil {
		closeSession(h.logger, h.sess)
		h.sess = nil
	}
}

// withSession - шаг для retrier: на обрыве соединения повтор пойдёт уже на новом
func withSession[T any](h *connHolder, fn func(ctx context.Context, sess repository.Session) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		sess, err := h.session(ctx)
		if err != nil {
			var zero T
			return zero, err
		}

		res, err := fn(ctx, sess)
		if isBadConn(err) {
			h.logger.Warn().Err(err).Msg("DB connection is broken, reacquiring")
			h.release()
		}
		return res, err
	}
}

func isBadConn(err error) bool {
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)
}
