// Package database is the PostgreSQL implementation of store.DataStore.
package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/store"
)

const uniqueViolation = "23505"

type DB struct {
	Pool *pgxpool.Pool
}

var _ store.DataStore = (*DB)(nil)

func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established")
	return &DB{Pool: pool}, nil
}

func (db *DB) Accounts() store.Collection[models.Account] {
	return &collection[models.Account]{db: db, t: accountsTable}
}

func (db *DB) Projects() store.Collection[models.Project] {
	return &collection[models.Project]{db: db, t: projectsTable}
}

func (db *DB) Photos() store.Collection[models.Photo] {
	return &collection[models.Photo]{db: db, t: photosTable}
}

func (db *DB) Close() error {
	db.Pool.Close()
	log.Println("Database connection closed")
	return nil
}

// translate maps driver errors onto the store error vocabulary.
func translate(err error, t *tableDef) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := t.constraints[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &store.ConflictError{Collection: t.name, Field: field}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return fmt.Errorf("%s: %w", t.name, err)
}
