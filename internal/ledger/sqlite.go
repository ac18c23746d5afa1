package ledger

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type SqliteDialect struct{}

var _ Dialect = (*SqliteDialect)(nil)

func (SqliteDialect) Placeholder() sq.PlaceholderFormat {
	return sq.Question
}

func (SqliteDialect) CreateTableQuery(table string) string {
	const createQuery = `
		CREATE TABLE IF NOT EXISTS %s (
			migration VARCHAR(255) PRIMARY KEY,
			batch BIGINT NOT NULL
		);
	`

	return fmt.Sprintf(createQuery, table)
}

func (SqliteDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)
}
