package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/common"
	"github.com/lib/pq"
)

// PQAdapter talks to PostgreSQL through database/sql and lib/pq, for
// environments that pin the pure database/sql driver.
type PQAdapter struct {
	db *sql.DB
	common.SQLExecutor
}

func NewPQ() *PQAdapter {
	return &PQAdapter{}
}

func (p *PQAdapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)

	p.db = db
	p.SQLExecutor = common.NewSQLExecutor(db, classify, true)
	return nil
}

func (p *PQAdapter) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PQAdapter) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PQAdapter) Dialect() common.Dialect {
	return common.Postgres
}

func (p *PQAdapter) Begin(ctx context.Context) (common.Tx, error) {
	return common.BeginSQL(ctx, p.db, classify, true)
}

func isPQUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
