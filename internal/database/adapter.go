package database

import (
	"context"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/common"
)

type (
	Executor    = common.Executor
	Tx          = common.Tx
	Dialect     = common.Dialect
	QueryResult = common.QueryResult
)

// ErrUniqueViolation is returned (wrapped) by every connector when a write
// hits a unique or primary key constraint.
var ErrUniqueViolation = common.ErrUniqueViolation

// Connector is the storage capability the seeding engine runs on: raw
// statement execution plus explicit transactions.
type Connector interface {
	Executor

	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	Begin(ctx context.Context) (Tx, error)
	Dialect() Dialect
}
