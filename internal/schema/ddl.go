package schema

import (
	"context"
	"embed"
	"fmt"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/common"
)

//go:embed sql/*.sql
var ddlFiles embed.FS

// DDL returns the CREATE TABLE script for a dialect name.
func DDL(dialect string) (string, error) {
	var file string
	switch dialect {
	case "postgres", "postgresql":
		file = "sql/postgres.sql"
	case "mysql":
		file = "sql/mysql.sql"
	case "sqlite", "sqlite3":
		file = "sql/sqlite.sql"
	default:
		return "", fmt.Errorf("no schema bundled for dialect %s", dialect)
	}

	data, err := ddlFiles.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return string(data), nil
}

// Apply creates any missing hospital tables. Statements are idempotent.
func Apply(ctx context.Context, ex common.Executor, dialect string) (int, error) {
	script, err := DDL(dialect)
	if err != nil {
		return 0, err
	}

	statements := common.ParseSQLStatements(script)
	for i, stmt := range statements {
		if _, err := ex.Exec(ctx, stmt); err != nil {
			return i, fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}
	return len(statements), nil
}
