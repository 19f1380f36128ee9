// Package repository provides methods to work with DB
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// PhotoRepo - чтение и захват соединения под запрос
type PhotoRepo interface {
	Acquire(ctx context.Context) (Session, error)
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error)
	FindAssets(ctx context.Context, assetID int64) ([]model.Asset, error)
	ListLabels(ctx context.Context, assetID int64) ([]model.Label, error)
	SearchLabels(ctx context.Context, pattern string) ([]model.SearchHit, error)
}

// Session - одно соединение, принадлежащее одному запросу. Close обязателен.
type Session interface {
	FindUsers(ctx context.Context, userID int64) ([]model.User, error)
	InsertAsset(ctx context.Context, asset *model.Asset) (int64, error)
	InsertLabels(ctx context.Context, assetID int64, labels []model.Label) error
	ClearAll(ctx context.Context, restartID int64) ([]string, error)
	Close() error
}

func ConnectWithRetries(appConfig *config.Config, retryCount int, idleTime time.Duration) (*dbpg.DB, error) {
	dbOptions := dbpg.Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 10 * time.Minute,
	}
	dsnLink := appConfig.GetString("POSTGRES_DSN")
	var dbConn *dbpg.DB
	var err error

	for i := range retryCount {
		dbConn, err = dbpg.New(dsnLink, nil, &dbOptions)
		if err == nil {
			err = dbConn.Master.Ping()
		}
		if err == nil {
			return dbConn, nil
		}
		zlog.Logger.Warn().Err(err).Int("try", i+1).Dur("wait", idleTime).Msg("Failed to connect to PGDB")
		time.Sleep(idleTime)
	}

	return nil, fmt.Errorf("failed to connect to DB after %d tries: %w", retryCount, err)
}

func MigrateWithRetries(db *sql.DB, migrationsPath string, retries int, idle time.Duration) error {
	var err error
	for i := range retries {
		zlog.Logger.Info().Int("try", i+1).Msg("Running migrations")
		if err = runMigrate(db, migrationsPath); err == nil {
			return nil
		}
		zlog.Logger.Warn().Err(err).Dur("wait", idle).Msg("Migration try was unsuccessful")
		time.Sleep(idle)
	}
	return fmt.Errorf("out of migration retries: %w", err)
}

func runMigrate(db *sql.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return err
	}

	sourceURL := "file://" + absPath
	zlog.Logger.Info().Str("source", sourceURL).Msg("Running migrations")

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	zlog.Logger.Info().Msg("Database migrations applied successfully")
	return nil
}
