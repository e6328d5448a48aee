package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type Adapter struct {
	pool *pgxpool.Pool
}

func New() *Adapter {
	return &Adapter{}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Adapter) Dialect() common.Dialect {
	return common.Postgres
}

func (p *Adapter) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return executor{p.pool}.Exec(ctx, query, args...)
}

func (p *Adapter) Query(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	return executor{p.pool}.Query(ctx, query, args...)
}

func (p *Adapter) InsertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return executor{p.pool}.InsertReturningID(ctx, query, args...)
}

func (p *Adapter) Begin(ctx context.Context) (common.Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &pgTx{executor: executor{tx}, tx: tx}, nil
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type runner interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// executor serves both the pool and an open pgx.Tx.
type executor struct {
	r runner
}

func (e executor) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	tag, err := e.r.Exec(ctx, query, args...)
	if err != nil {
		return 0, classify.Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func (e executor) Query(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	rows, err := e.r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", classify.Wrap(err))
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columns[i] = fd.Name
	}

	var results []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", classify.Wrap(err))
	}

	return &common.QueryResult{
		Columns: columns,
		Rows:    results,
	}, nil
}

func (e executor) InsertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := e.r.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, classify.Wrap(err)
	}
	return id, nil
}

type pgTx struct {
	executor
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

var classify = common.Classifier(func(err error) bool {
	return IsUniqueViolation(err) || isPQUniqueViolation(err)
})
