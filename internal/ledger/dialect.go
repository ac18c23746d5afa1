package ledger

import (
	sq "github.com/Masterminds/squirrel"
)

// Dialect supplies the table DDL and the placeholder style of a
// particular database. Everything else the ledger does is plain DML
// built with squirrel.
type Dialect interface {
	Placeholder() sq.PlaceholderFormat
	CreateTableQuery(table string) string
	DropTableQuery(table string) string
}
