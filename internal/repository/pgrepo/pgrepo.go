// Package pgrepo implements the photo repository on PostgreSQL
package pgrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/UnendingLoop/PhotoApp/internal/repository"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

func New(dbconn *dbpg.DB) *PostgresRepo {
	return &PostgresRepo{DB: dbconn}
}

// Acquire берёт выделенное соединение из пула на время запроса
func (p *PostgresRepo) Acquire(ctx context.Context) (repository.Session, error) {
	conn, err := p.DB.Master.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire db connection: %w", err)
	}
	return &Session{conn: conn}, nil
}

func (p *PostgresRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := p.DB.QueryRowContext(ctx, `SELECT count(userid) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *PostgresRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	query := `SELECT userid, username, givenname, familyname
	FROM users
	ORDER BY userid ASC`

	rows, err := p.DB.QueryContext(ctx, query)
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

func (p *PostgresRepo) ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error) {
	query := `SELECT assetid, userid, localname, bucketkey
	FROM assets
	ORDER BY assetid ASC`
	args := []any{}

	if userID != nil {
		query = `SELECT assetid, userid, localname, bucketkey
	FROM assets
	WHERE userid = $1
	ORDER BY assetid ASC`
		args = append(args, *userID)
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	return scanAssets(rows)
}

// FindAssets возвращает все совпадения по id: сервис сам решает, что значит 0 или >1
func (p *PostgresRepo) FindAssets(ctx context.Context, assetID int64) ([]model.Asset, error) {
	query := `SELECT assetid, userid, localname, bucketkey
	FROM assets
	WHERE assetid = $1`

	rows, err := p.DB.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	return scanAssets(rows)
}

func (p *PostgresRepo) ListLabels(ctx context.Context, assetID int64) ([]model.Label, error) {
	query := `SELECT assetid, label, confidence
	FROM labels
	WHERE assetid = $1
	ORDER BY label ASC`

	rows, err := p.DB.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	labels := []model.Label{}
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.AssetID, &l.Name, &l.Confidence); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}

	return labels, rows.Err()
}

// SearchLabels - регистронезависимый поиск подстроки; pattern уже экранирован для LIKE
func (p *PostgresRepo) SearchLabels(ctx context.Context, pattern string) ([]model.SearchHit, error) {
	query := `SELECT assetid, label, confidence
	FROM labels
	WHERE label ILIKE $1 ESCAPE '\'
	ORDER BY assetid ASC, label ASC`

	rows, err := p.DB.QueryContext(ctx, query, "%"+pattern+"%")
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	hits := []model.SearchHit{}
	for rows.Next() {
		var h model.SearchHit
		if err := rows.Scan(&h.AssetID, &h.Name, &h.Confidence); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}

	return hits, rows.Err()
}

func scanAssets(rows *sql.Rows) ([]model.Asset, error) {
	assets := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.AssetID, &a.UserID, &a.LocalName, &a.BucketKey); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}

	return assets, rows.Err()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Error while closing *sql.Rows after scanning")
	}
}
