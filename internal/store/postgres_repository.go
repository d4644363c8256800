package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentsTable = "app_documents"

// DefaultDocumentKey names the document row.
const DefaultDocumentKey = "familie-app-v2:data:v1"

// Schema creates the table used by PostgresRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS app_documents (
	key        TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	version    BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository stores the document as a JSONB row.
type PostgresRepository struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgresRepository creates a PostgreSQL-backed repository.
func NewPostgresRepository(pool *pgxpool.Pool, key string) *PostgresRepository {
	if key == "" {
		key = DefaultDocumentKey
	}
	return &PostgresRepository{pool: pool, key: key}
}

// Migrate creates the documents table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create %s: %w", documentsTable, err)
	}
	return nil
}

// Get reads the document row. A missing row yields the empty document.
func (r *PostgresRepository) Get(ctx context.Context) (*Document, error) {
	query, args, err := psql.Select("data").
		From(documentsTable).
		Where(sq.Eq{"key": r.key}).
		ToSql()
	if err != nil {
		return nil, err
	}

	return r.scan(r.pool.QueryRow(ctx, query, args...))
}

// Set upserts the document row and bumps its version.
func (r *PostgresRepository) Set(ctx context.Context, doc *Document) error {
	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query, args, err := psql.Insert(documentsTable).
		Columns("key", "data", "version", "updated_at").
		Values(r.key, data, 1, time.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, " +
			"version = " + documentsTable + ".version + 1, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// Update locks the document row for the duration of the transaction.
func (r *PostgresRepository) Update(ctx context.Context, fn MutateFunc) (*Document, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Make sure the row exists so FOR UPDATE has something to lock.
	seed, err := encode(Empty())
	if err != nil {
		return nil, err
	}
	insert, args, err := psql.Insert(documentsTable).
		Columns("key", "data").
		Values(r.key, seed).
		Suffix("ON CONFLICT (key) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, insert, args...); err != nil {
		return nil, fmt.Errorf("seed document: %w", err)
	}

	selectQuery, args, err := psql.Select("data").
		From(documentsTable).
		Where(sq.Eq{"key": r.key}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, err
	}
	doc, err := r.scan(tx.QueryRow(ctx, selectQuery, args...))
	if err != nil {
		return nil, err
	}

	if err := fn(doc); err != nil {
		return nil, err
	}

	data, err := encode(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	update, args, err := psql.Update(documentsTable).
		Set("data", data).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"key": r.key}).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, update, args...); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return doc, nil
}

// Ping checks connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) scan(row pgx.Row) (*Document, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("select document: %w", err)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Updater    = (*PostgresRepository)(nil)
)
