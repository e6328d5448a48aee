package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/common"
)

func listTablesQuery(dialect string) (string, error) {
	switch dialect {
	case "postgres", "postgresql":
		return `SELECT table_name AS name FROM information_schema.tables
			WHERE table_schema = current_schema()`, nil
	case "mysql":
		return `SELECT table_name AS name FROM information_schema.tables
			WHERE table_schema = DATABASE()`, nil
	case "sqlite", "sqlite3":
		return "SELECT name FROM sqlite_master WHERE type = 'table'", nil
	default:
		return "", fmt.Errorf("no table listing for dialect %s", dialect)
	}
}

// Missing returns the hospital tables the database does not have yet, in
// creation order.
func Missing(ctx context.Context, ex common.Executor, dialect string) ([]string, error) {
	query, err := listTablesQuery(dialect)
	if err != nil {
		return nil, err
	}
	res, err := ex.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	present := make(map[string]bool, len(res.Rows))
	for _, row := range res.Rows {
		for _, v := range row {
			present[strings.ToLower(fmt.Sprint(v))] = true
		}
	}

	var missing []string
	for _, t := range Tables {
		if !present[t.Name] {
			missing = append(missing, t.Name)
		}
	}
	return missing, nil
}
