package store

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/sqlite"
	"github.com/Lumos-Labs-HQ/medseed/internal/schema"
)

// MemoryURL opens a private SQLite database that lives as long as its
// single connection.
const MemoryURL = "sqlite://:memory:"

// OpenMemory returns a store over a fresh in-memory SQLite database with
// the hospital schema applied. Constraints are enforced by SQLite itself.
// Close releases the database.
func OpenMemory(ctx context.Context) (*SQLStore, error) {
	conn := sqlite.New()
	if err := conn.Connect(ctx, MemoryURL); err != nil {
		return nil, err
	}
	if _, err := schema.Apply(ctx, conn, conn.Dialect().Name); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return NewSQLStore(conn), nil
}
