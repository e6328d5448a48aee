package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLExecutor implements Executor on top of database/sql, for either a
// *sql.DB or a *sql.Tx.
type SQLExecutor struct {
	runner    sqlRunner
	classify  Classifier
	returning bool
}

func NewSQLExecutor(db *sql.DB, classify Classifier, returning bool) SQLExecutor {
	return SQLExecutor{runner: db, classify: classify, returning: returning}
}

func (e SQLExecutor) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := e.runner.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, e.classify.Wrap(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", e.classify.Wrap(err))
	}
	return affected, nil
}

func (e SQLExecutor) Query(ctx context.Context, query string, args ...interface{}) (*QueryResult, error) {
	rows, err := e.runner.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", e.classify.Wrap(err))
	}
	defer rows.Close()
	return ScanRows(rows)
}

func (e SQLExecutor) InsertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if e.returning {
		var id int64
		if err := e.runner.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, e.classify.Wrap(err)
		}
		return id, nil
	}

	res, err := e.runner.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, e.classify.Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// BeginSQL opens a database/sql transaction that shares the executor's
// classification and key-return behavior.
func BeginSQL(ctx context.Context, db *sql.DB, classify Classifier, returning bool) (Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTx{
		SQLExecutor: SQLExecutor{runner: tx, classify: classify, returning: returning},
		tx:          tx,
	}, nil
}

type sqlTx struct {
	SQLExecutor
	tx *sql.Tx
}

func (t *sqlTx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// ScanRows drains rows into a QueryResult, converting []byte values to strings.
func ScanRows(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = val
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &QueryResult{
		Columns: columns,
		Rows:    results,
	}, nil
}
