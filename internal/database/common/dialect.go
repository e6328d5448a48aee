package common

import "github.com/Masterminds/squirrel"

// Dialect captures the statement differences between providers that the
// seeder cares about.
type Dialect struct {
	Name        string
	Placeholder squirrel.PlaceholderFormat
	// Returning is set when generated keys come back through INSERT ... RETURNING
	// instead of the driver's LastInsertId.
	Returning bool
}

var (
	Postgres = Dialect{Name: "postgres", Placeholder: squirrel.Dollar, Returning: true}
	MySQL    = Dialect{Name: "mysql", Placeholder: squirrel.Question}
	SQLite   = Dialect{Name: "sqlite", Placeholder: squirrel.Question}
)

func (d Dialect) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder)
}
