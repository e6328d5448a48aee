package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/common"
	"github.com/mattn/go-sqlite3"
)

type Adapter struct {
	db *sql.DB
	common.SQLExecutor
	path string
}

func New() *Adapter {
	return &Adapter{}
}

func (s *Adapter) Connect(ctx context.Context, url string) error {
	dbPath := BuildDSN(url)

	s.path = strings.TrimPrefix(url, "sqlite://")
	if idx := strings.Index(s.path, "?"); idx > 0 {
		s.path = s.path[:idx]
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// A single connection serializes writers; SQLite rejects concurrent ones.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if IsMemory(url) {
		// Closing the only connection would drop the database.
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	s.db = db
	s.SQLExecutor = common.NewSQLExecutor(db, classify, false)
	return nil
}

// BuildDSN strips the sqlite:// scheme and makes sure foreign keys are enforced.
func BuildDSN(url string) string {
	dbPath := strings.TrimPrefix(url, "sqlite://")
	if !strings.Contains(dbPath, "?") {
		return dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	}
	if !strings.Contains(dbPath, "_foreign_keys=") && !strings.Contains(dbPath, "_fk=") {
		dbPath += "&_foreign_keys=on"
	}
	return dbPath
}

// IsMemory reports whether url names an in-memory database.
func IsMemory(url string) bool {
	path := strings.TrimPrefix(url, "sqlite://")
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:") || strings.Contains(path, "mode=memory")
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Adapter) Dialect() common.Dialect {
	return common.SQLite
}

func (s *Adapter) Begin(ctx context.Context) (common.Tx, error) {
	return common.BeginSQL(ctx, s.db, classify, false)
}

func (s *Adapter) Path() string {
	return s.path
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var sqErr sqlite3.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	return sqErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

var classify = common.Classifier(IsUniqueViolation)
