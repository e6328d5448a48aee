package common

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Pre-compiled regex patterns for SQL parsing
var (
	commentRegex = regexp.MustCompile(`(?m)^\s*--.*$`)
	stringRegex  = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`")
)

type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Executor runs parameterized statements against a connection or a transaction.
type Executor interface {
	// Exec runs a write statement and reports the affected row count.
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)
	Query(ctx context.Context, query string, args ...interface{}) (*QueryResult, error)
	// InsertReturningID runs an INSERT and returns the generated primary key.
	InsertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error)
}

type Tx interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ParseSQLStatements splits a script on semicolons that are not inside string literals.
func ParseSQLStatements(sql string) []string {
	sql = commentRegex.ReplaceAllString(sql, "")

	stringPositions := make(map[int]bool)
	for _, match := range stringRegex.FindAllStringIndex(sql, -1) {
		for i := match[0]; i < match[1]; i++ {
			stringPositions[i] = true
		}
	}

	estimatedStmts := strings.Count(sql, ";") + 1
	statements := make([]string, 0, estimatedStmts)

	var currentStatement strings.Builder
	currentStatement.Grow(len(sql) / estimatedStmts)

	for i, char := range sql {
		if char == ';' && !stringPositions[i] {
			stmt := strings.TrimSpace(currentStatement.String())
			if stmt != "" && !strings.HasPrefix(stmt, "/*") {
				statements = append(statements, stmt)
			}
			currentStatement.Reset()
		} else {
			currentStatement.WriteRune(char)
		}
	}

	if currentStatement.Len() > 0 {
		stmt := strings.TrimSpace(currentStatement.String())
		if stmt != "" && !strings.HasPrefix(stmt, "/*") {
			statements = append(statements, stmt)
		}
	}

	return statements
}

// ToInt64 normalizes the integer representations drivers hand back for
// COUNT(*) and id columns.
func ToInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	case []byte:
		return parseInt(string(n))
	case string:
		return parseInt(n)
	default:
		return 0, false
	}
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
