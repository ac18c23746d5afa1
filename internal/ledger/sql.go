package ledger

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/plover-db/plover/internal/logger"
)

// SQLLedger stores entries in a two column table. All queries are
// built with squirrel against the dialect's placeholder format.
type SQLLedger struct {
	db    *sql.DB
	table string
	d     Dialect
	sb    sq.StatementBuilderType
	lg    logger.Logger
}

var _ Ledger = (*SQLLedger)(nil)

func NewSQLLedger(db *sql.DB, table string, d Dialect) *SQLLedger {
	if table == "" {
		table = DefaultTable
	}

	return &SQLLedger{
		db:    db,
		table: table,
		d:     d,
		sb:    sq.StatementBuilder.PlaceholderFormat(d.Placeholder()).RunWith(db),
		lg:    logger.NullLogger{},
	}
}

func (l *SQLLedger) SetLogger(lg logger.Logger) {
	l.lg = lg
}

func (l *SQLLedger) Find(ctx context.Context, id string) ([]Entry, error) {
	q := l.sb.
		Select("migration", "batch").
		From(l.table).
		Where(sq.Eq{"migration": id})

	l.logQuery(q)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, storeErr("find", err)
	}

	return scanEntries(rows)
}

func (l *SQLLedger) Insert(ctx context.Context, id string, batch int) error {
	q := l.sb.
		Insert(l.table).
		Columns("migration", "batch").
		Values(id, batch)

	l.logQuery(q)

	if _, err := q.ExecContext(ctx); err != nil {
		return storeErr("insert", err)
	}

	return nil
}

func (l *SQLLedger) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	q := l.sb.
		Delete(l.table).
		Where(sq.Eq{"migration": ids})

	l.logQuery(q)

	if _, err := q.ExecContext(ctx); err != nil {
		return storeErr("delete", err)
	}

	return nil
}

func (l *SQLLedger) Ran(ctx context.Context) ([]string, error) {
	q := l.sb.
		Select("migration").
		From(l.table).
		OrderBy("batch ASC", "migration ASC")

	l.logQuery(q)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, storeErr("ran", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			l.lg.Error(closeErr)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ids, storeErr("ran", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return ids, storeErr("ran", err)
	}

	return ids, nil
}

func (l *SQLLedger) LastBatch(ctx context.Context) (int, error) {
	q := l.sb.
		Select("MAX(batch)").
		From(l.table)

	l.logQuery(q)

	var max sql.NullInt64
	if err := q.QueryRowContext(ctx).Scan(&max); err != nil {
		return 0, storeErr("last batch", err)
	}

	if !max.Valid {
		return 0, nil
	}

	return int(max.Int64), nil
}

func (l *SQLLedger) NextBatch(ctx context.Context) (int, error) {
	last, err := l.LastBatch(ctx)
	if err != nil {
		return 0, err
	}

	return last + 1, nil
}

func (l *SQLLedger) Count(ctx context.Context) (int, error) {
	q := l.sb.
		Select("COUNT(*)").
		From(l.table)

	l.logQuery(q)

	var count int
	if err := q.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, storeErr("count", err)
	}

	return count, nil
}

func (l *SQLLedger) CreateTable(ctx context.Context) error {
	query := l.d.CreateTableQuery(l.table)
	l.lg.SQL(query)

	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return storeErr("create table", err)
	}

	return nil
}

func (l *SQLLedger) DropTable(ctx context.Context) error {
	query := l.d.DropTableQuery(l.table)
	l.lg.SQL(query)

	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return storeErr("drop table", err)
	}

	return nil
}

func (l *SQLLedger) logQuery(q sq.Sqlizer) {
	query, args, err := q.ToSql()
	if err != nil {
		l.lg.Error(err)
		return
	}

	l.lg.SQL(query, args...)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Migration, &e.Batch); err != nil {
			return entries, storeErr("scan", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return entries, storeErr("scan", err)
	}

	return entries, nil
}
