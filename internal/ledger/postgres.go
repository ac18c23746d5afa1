package ledger

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type PostgresDialect struct{}

var _ Dialect = (*PostgresDialect)(nil)

func (PostgresDialect) Placeholder() sq.PlaceholderFormat {
	return sq.Dollar
}

func (PostgresDialect) CreateTableQuery(table string) string {
	const createQuery = `
		CREATE TABLE IF NOT EXISTS %s (
			migration VARCHAR(255) PRIMARY KEY,
			batch BIGINT NOT NULL
		);
	`

	return fmt.Sprintf(createQuery, table)
}

func (PostgresDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)
}
