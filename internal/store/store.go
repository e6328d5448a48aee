// Package store is the write surface the seeder runs on. SQLStore backs it
// with a database connector; OpenMemory backs it with in-memory SQLite.
package store

import (
	"context"
	"sort"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/common"
)

// ErrUniqueViolation is wrapped into insert errors that hit a unique or
// primary key constraint.
var ErrUniqueViolation = common.ErrUniqueViolation

// Record is one row keyed by column name.
type Record map[string]interface{}

// Columns returns the record's column names in sorted order.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Writer inserts and clears tenant-scoped rows.
type Writer interface {
	// Insert writes rec into table and returns the generated id.
	Insert(ctx context.Context, table string, rec Record) (int64, error)
	// DeleteTenant removes every row of table owned by tenant.
	DeleteTenant(ctx context.Context, table string, tenant int64) (int64, error)
}

type Store interface {
	Writer

	Count(ctx context.Context, table string, tenant int64) (int64, error)
	// WithTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Writer) error) error

	// FirstTenant returns the lowest hospital id, if any hospital exists.
	FirstTenant(ctx context.Context) (int64, bool, error)
	TenantExists(ctx context.Context, id int64) (bool, error)
}

type Tenant struct {
	ID   int64
	Name string
}
