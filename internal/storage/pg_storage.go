package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgExecQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStorage guarda el registro del cliente en la tabla client_storage.
type PgStorage struct {
	db        pgExecQuerier
	namespace string
}

func NewPgStorage(pool *pgxpool.Pool, namespace string) *PgStorage {
	if strings.TrimSpace(namespace) == "" {
		namespace = "default"
	}
	return &PgStorage{db: pool, namespace: namespace}
}

// EnsureSchema crea la tabla si no existe.
func (s *PgStorage) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS client_storage (
			namespace  TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (namespace, key)
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PgStorage) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `
		SELECT value
		FROM client_storage
		WHERE namespace = $1 AND key = $2
	`
	var value string
	err := s.db.QueryRow(ctx, query, s.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return value, true, nil
}

func (s *PgStorage) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	const query = `
		INSERT INTO client_storage (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, s.namespace, key, value); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PgStorage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const query = `
		DELETE FROM client_storage
		WHERE namespace = $1 AND key = ANY($2)
	`
	if _, err := s.db.Exec(ctx, query, s.namespace, keys); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
