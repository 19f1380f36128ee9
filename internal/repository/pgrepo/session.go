package pgrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/wb-go/wbf/zlog"
)

// Session держит *sql.Conn на время одного запроса
type Session struct {
	conn *sql.Conn
}

func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) FindUsers(ctx context.Context, userID int64) ([]model.User, error) {
	query := `SELECT userid, username, givenname, familyname
	FROM users
	WHERE userid = $1`

	rows, err := s.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.UserID, &u.Username, &u.GivenName, &u.FamilyName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// InsertAsset - одна строка в своей транзакции, возвращает выданный assetid
func (s *Session) InsertAsset(ctx context.Context, asset *model.Asset) (int64, error) {
	query := `INSERT INTO assets (userid, localname, bucketkey)
	VALUES ($1, $2, $3)
	RETURNING assetid`

	var assetID int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, asset.UserID, asset.LocalName, asset.BucketKey).Scan(&assetID)
	})
	if err != nil {
		return 0, fmt.Errorf("insert asset: %w", err)
	}

	return assetID, nil
}

// InsertLabels пишет все метки одной транзакцией: либо все, либо ни одной
func (s *Session) InsertLabels(ctx context.Context, assetID int64, labels []model.Label) error {
	if len(labels) == 0 {
		return nil
	}

	query := `INSERT INTO labels (assetid, label, confidence)
	VALUES ($1, $2, $3)`

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer func() {
			if err := stmt.Close(); err != nil {
				zlog.Logger.Warn().Err(err).Msg("Failed to close prepared statement")
			}
		}()

		for _, l := range labels {
			if _, err := stmt.ExecContext(ctx, assetID, l.Name, l.Confidence); err != nil {
				return fmt.Errorf("label %q: %w", l.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert labels for asset %d: %w", assetID, err)
	}

	return nil
}

// ClearAll забирает все ключи и очищает labels и assets в одной транзакции.
// FK отложен на время удаления, последовательность assetid начинается заново с restartID.
func (s *Session) ClearAll(ctx context.Context, restartID int64) ([]string, error) {
	var keys []string

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT bucketkey FROM assets ORDER BY assetid ASC`)
		if err != nil {
			return err
		}
		keys = []string{}
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				closeRows(rows)
				return err
			}
			keys = append(keys, k)
		}
		closeRows(rows)
		if err := rows.Err(); err != nil {
			return err
		}

		statements := []string{
			`SET CONSTRAINTS ALL DEFERRED`,
			`DELETE FROM labels`,
			`DELETE FROM assets`,
			`SET CONSTRAINTS ALL IMMEDIATE`,
		}
		for _, q := range statements {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("%s: %w", q, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `SELECT setval('assets_assetid_seq', $1, false)`, restartID); err != nil {
			return fmt.Errorf("reset asset id sequence: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clear tables: %w", err)
	}

	return keys, nil
}

// inTx - commit при успехе fn, иначе полный rollback до возврата ошибки
func (s *Session) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
