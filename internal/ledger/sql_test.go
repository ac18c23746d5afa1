package ledger

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLLedger(t *testing.T) {
	t.Run("default table name", func(t *testing.T) {
		l := NewSQLLedger(nil, "", SqliteDialect{})

		require.NotNil(t, l)
		assert.Equal(t, "migrations", l.table)
	})

	t.Run("custom table name", func(t *testing.T) {
		l := NewSQLLedger(nil, "schema_history", SqliteDialect{})

		require.NotNil(t, l)
		assert.Equal(t, "schema_history", l.table)
	})
}

func Test_DialectQueries(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		d := SqliteDialect{}

		create := d.CreateTableQuery("migrations")
		assert.True(t, strings.Contains(create, "CREATE TABLE IF NOT EXISTS migrations"))
		assert.True(t, strings.Contains(create, "migration VARCHAR(255) PRIMARY KEY"))
		assert.True(t, strings.Contains(create, "batch BIGINT NOT NULL"))

		assert.Equal(t, "DROP TABLE IF EXISTS migrations;", d.DropTableQuery("migrations"))
		assert.Equal(t, sq.Question, d.Placeholder())
	})

	t.Run("mysql", func(t *testing.T) {
		d := NewMySQLDialect("")

		create := d.CreateTableQuery("migrations")
		assert.True(t, strings.Contains(create, "CREATE TABLE IF NOT EXISTS migrations"))
		assert.True(t, strings.Contains(create, "ENGINE=INNODB DEFAULT CHARSET=utf8"))

		assert.Equal(t, sq.Question, d.Placeholder())
	})

	t.Run("mysql with custom charset", func(t *testing.T) {
		d := NewMySQLDialect("utf8mb4")

		assert.True(t, strings.Contains(d.CreateTableQuery("migrations"), "CHARSET=utf8mb4"))
	})

	t.Run("postgres", func(t *testing.T) {
		d := PostgresDialect{}

		create := d.CreateTableQuery("migrations")
		assert.True(t, strings.Contains(create, "CREATE TABLE IF NOT EXISTS migrations"))

		assert.Equal(t, sq.Dollar, d.Placeholder())
	})
}

func Test_LedgerQueriesUsePlaceholders(t *testing.T) {
	t.Run("question placeholders", func(t *testing.T) {
		l := NewSQLLedger(nil, "migrations", SqliteDialect{})

		query, args, err := l.sb.
			Select("migration", "batch").
			From(l.table).
			Where(sq.Eq{"migration": "2020_01_01_000000_create_users_table"}).
			ToSql()

		require.NoError(t, err)
		assert.Equal(t, "SELECT migration, batch FROM migrations WHERE migration = ?", query)
		assert.Equal(t, []interface{}{"2020_01_01_000000_create_users_table"}, args)
	})

	t.Run("whereIn expansion for delete", func(t *testing.T) {
		l := NewSQLLedger(nil, "migrations", SqliteDialect{})

		query, args, err := l.sb.
			Delete(l.table).
			Where(sq.Eq{"migration": []string{"a", "b"}}).
			ToSql()

		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM migrations WHERE migration IN (?,?)", query)
		assert.Len(t, args, 2)
	})

	t.Run("dollar placeholders", func(t *testing.T) {
		l := NewSQLLedger(nil, "migrations", PostgresDialect{})

		query, _, err := l.sb.
			Insert(l.table).
			Columns("migration", "batch").
			Values("a", 1).
			ToSql()

		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO migrations (migration,batch) VALUES ($1,$2)", query)
	})
}
