package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Lumos-Labs-HQ/medseed/internal/database"
	"github.com/Lumos-Labs-HQ/medseed/internal/database/common"
	"github.com/Lumos-Labs-HQ/medseed/internal/schema"
	"github.com/Masterminds/squirrel"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLStore implements Store on a database connector. Statements are built
// with squirrel using the connector's placeholder format.
type SQLStore struct {
	conn    database.Connector
	dialect database.Dialect
}

func NewSQLStore(conn database.Connector) *SQLStore {
	return &SQLStore{conn: conn, dialect: conn.Dialect()}
}

func (s *SQLStore) Close() error {
	return s.conn.Close()
}

func (s *SQLStore) Insert(ctx context.Context, table string, rec Record) (int64, error) {
	return insert(ctx, s.conn, s.dialect, table, rec)
}

func (s *SQLStore) DeleteTenant(ctx context.Context, table string, tenant int64) (int64, error) {
	return deleteTenant(ctx, s.conn, s.dialect, table, tenant)
}

func (s *SQLStore) Count(ctx context.Context, table string, tenant int64) (int64, error) {
	if !validIdentifier.MatchString(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}
	query, args, err := s.dialect.Builder().
		Select("COUNT(*) AS n").
		From(table).
		Where(squirrel.Eq{schema.TenantColumn: tenant}).
		ToSql()
	if err != nil {
		return 0, err
	}
	return s.scalar(ctx, query, args...)
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(Writer) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&txWriter{ex: tx, dialect: s.dialect}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) FirstTenant(ctx context.Context) (int64, bool, error) {
	query, args, err := s.dialect.Builder().
		Select("id").
		From(schema.TenantTable).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return 0, false, err
	}
	result, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return 0, false, err
	}
	if len(result.Rows) == 0 {
		return 0, false, nil
	}
	id, ok := common.ToInt64(result.Rows[0]["id"])
	if !ok {
		return 0, false, fmt.Errorf("unexpected hospital id %v", result.Rows[0]["id"])
	}
	return id, true, nil
}

func (s *SQLStore) TenantExists(ctx context.Context, id int64) (bool, error) {
	query, args, err := s.dialect.Builder().
		Select("COUNT(*) AS n").
		From(schema.TenantTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, err
	}
	n, err := s.scalar(ctx, query, args...)
	return n > 0, err
}

// CreateTenant inserts a hospital row and returns its id.
func (s *SQLStore) CreateTenant(ctx context.Context, name string) (int64, error) {
	return insert(ctx, s.conn, s.dialect, schema.TenantTable, Record{"name": name})
}

func (s *SQLStore) ListTenants(ctx context.Context) ([]Tenant, error) {
	query, args, err := s.dialect.Builder().
		Select("id", "name").
		From(schema.TenantTable).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	result, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	tenants := make([]Tenant, 0, len(result.Rows))
	for _, row := range result.Rows {
		id, _ := common.ToInt64(row["id"])
		tenants = append(tenants, Tenant{ID: id, Name: asString(row["name"])})
	}
	return tenants, nil
}

// Rows returns the tenant's rows of table in id order.
func (s *SQLStore) Rows(ctx context.Context, table string, tenant int64) ([]Record, error) {
	if !validIdentifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}
	query, args, err := s.dialect.Builder().
		Select("*").
		From(table).
		Where(squirrel.Eq{schema.TenantColumn: tenant}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	result, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	rows := make([]Record, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = Record(row)
	}
	return rows, nil
}

func (s *SQLStore) scalar(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	if len(result.Rows) == 0 {
		return 0, nil
	}
	n, ok := common.ToInt64(result.Rows[0]["n"])
	if !ok {
		return 0, fmt.Errorf("unexpected count value %v", result.Rows[0]["n"])
	}
	return n, nil
}

type txWriter struct {
	ex      database.Executor
	dialect database.Dialect
}

func (w *txWriter) Insert(ctx context.Context, table string, rec Record) (int64, error) {
	return insert(ctx, w.ex, w.dialect, table, rec)
}

func (w *txWriter) DeleteTenant(ctx context.Context, table string, tenant int64) (int64, error) {
	return deleteTenant(ctx, w.ex, w.dialect, table, tenant)
}

func insert(ctx context.Context, ex database.Executor, dialect database.Dialect, table string, rec Record) (int64, error) {
	if !validIdentifier.MatchString(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}
	cols := rec.Columns()
	vals := make([]interface{}, len(cols))
	for i, col := range cols {
		if !validIdentifier.MatchString(col) {
			return 0, fmt.Errorf("invalid column name in table %s: %s", table, col)
		}
		vals[i] = rec[col]
	}

	b := dialect.Builder().Insert(table).Columns(cols...).Values(vals...)
	if dialect.Returning {
		b = b.Suffix("RETURNING id")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	return ex.InsertReturningID(ctx, query, args...)
}

func deleteTenant(ctx context.Context, ex database.Executor, dialect database.Dialect, table string, tenant int64) (int64, error) {
	if !validIdentifier.MatchString(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}
	query, args, err := dialect.Builder().
		Delete(table).
		Where(squirrel.Eq{schema.TenantColumn: tenant}).
		ToSql()
	if err != nil {
		return 0, err
	}
	return ex.Exec(ctx, query, args...)
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}
