package ledger

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const DefaultMySQLCharset = "utf8"

type MySQLDialect struct {
	charset string
}

var _ Dialect = (*MySQLDialect)(nil)

func NewMySQLDialect(charset string) *MySQLDialect {
	if charset == "" {
		charset = DefaultMySQLCharset
	}

	return &MySQLDialect{charset: charset}
}

func (MySQLDialect) Placeholder() sq.PlaceholderFormat {
	return sq.Question
}

func (d MySQLDialect) CreateTableQuery(table string) string {
	const createQuery = `
		CREATE TABLE IF NOT EXISTS %s (
			migration VARCHAR(255) PRIMARY KEY,
			batch BIGINT NOT NULL
		) ENGINE=INNODB DEFAULT CHARSET=%s;
	`

	return fmt.Sprintf(createQuery, table, d.charset)
}

func (MySQLDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)
}
