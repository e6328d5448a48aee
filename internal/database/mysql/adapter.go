package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/medseed/internal/database/common"
	"github.com/go-sql-driver/mysql"
)

// erDupEntry is ER_DUP_ENTRY.
const erDupEntry = 1062

type Adapter struct {
	db *sql.DB
	common.SQLExecutor
	currentDB string
}

func New() *Adapter {
	return &Adapter{}
}

func (m *Adapter) Connect(ctx context.Context, url string) error {
	dsn := ParseURL(url)

	if idx := strings.Index(dsn, "/"); idx > 0 {
		dbPart := dsn[idx+1:]
		if qIdx := strings.Index(dbPart, "?"); qIdx > 0 {
			m.currentDB = dbPart[:qIdx]
		} else {
			m.currentDB = dbPart
		}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	m.db = db
	m.SQLExecutor = common.NewSQLExecutor(db, classify, false)
	return nil
}

// ParseURL turns a mysql:// URL into a go-sql-driver DSN. Plain DSNs pass
// through unchanged apart from parseTime.
func ParseURL(url string) string {
	dsn := url
	if strings.HasPrefix(url, "mysql://") {
		dsn = strings.TrimPrefix(url, "mysql://")

		atIndex := strings.Index(dsn, "@")
		if atIndex > 0 {
			credentials := dsn[:atIndex]
			remainder := dsn[atIndex+1:]

			slashIndex := strings.Index(remainder, "/")
			if slashIndex > 0 {
				hostPort := remainder[:slashIndex]
				dbAndParams := remainder[slashIndex+1:]

				dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=REQUIRED", "tls=skip-verify")
				dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=DISABLED", "tls=false")
				dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=require", "tls=skip-verify")
				dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=disable", "tls=false")

				dsn = fmt.Sprintf("%s@tcp(%s)/%s", credentials, hostPort, dbAndParams)
			}
		}
	}

	if !strings.Contains(dsn, "parseTime=") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}
	return dsn
}

func (m *Adapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *Adapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Adapter) Dialect() common.Dialect {
	return common.MySQL
}

func (m *Adapter) Begin(ctx context.Context) (common.Tx, error) {
	return common.BeginSQL(ctx, m.db, classify, false)
}

// Database returns the schema name parsed from the DSN.
func (m *Adapter) Database() string {
	return m.currentDB
}

// IsUniqueViolation reports whether err is ER_DUP_ENTRY.
func IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == erDupEntry
}

var classify = common.Classifier(IsUniqueViolation)
