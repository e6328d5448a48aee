package database

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/mysql"
	"github.com/Lumos-Labs-HQ/medseed/internal/database/postgres"
	"github.com/Lumos-Labs-HQ/medseed/internal/database/sqlite"
)

// NewConnector returns an unconnected connector for provider. driver only
// matters for PostgreSQL, where "pq" selects lib/pq over the pgx pool.
func NewConnector(provider, driver string) (Connector, error) {
	switch provider {
	case "postgresql", "postgres":
		if driver == "pq" {
			return postgres.NewPQ(), nil
		}
		return postgres.New(), nil
	case "mysql":
		return mysql.New(), nil
	case "sqlite", "sqlite3":
		return sqlite.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", provider)
	}
}
