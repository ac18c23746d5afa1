package plover

import (
	"database/sql"

	"github.com/plover-db/plover/internal/discovery"
	"github.com/plover-db/plover/internal/ledger"
	"github.com/plover-db/plover/internal/logger"
	"github.com/plover-db/plover/unit"
)

type OptionFunc func(*Migrator) error

// UseLogger routes engine output through a colorized logger writing to
// any log.Logger compatible printer.
func UseLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewColoredLogger(p, printSQL, printDebug)
		return nil
	}
}

// UseBatchPolicy switches how batch numbers are assigned within one
// Migrate call. The default is BatchPerUnit.
func UseBatchPolicy(policy BatchPolicy) OptionFunc {
	return func(m *Migrator) error {
		m.policy = policy
		return nil
	}
}

// UseRegistry replaces the package level unit registry.
func UseRegistry(r *unit.Registry) OptionFunc {
	return func(m *Migrator) error {
		m.registry = r
		return nil
	}
}

// UseExecutor overrides the database handle units run against. By
// default units run against the same *sql.DB that backs the ledger.
func UseExecutor(ex unit.Executor) OptionFunc {
	return func(m *Migrator) error {
		m.ex = ex
		return nil
	}
}

// UseCloser hands the migrator a resource to close when the caller
// invokes the CloserFunc returned by NewMigrator.
func UseCloser(fn CloserFunc) OptionFunc {
	return func(m *Migrator) error {
		m.closerFns = append(m.closerFns, fn)
		return nil
	}
}

// UseLocalDiscovery lists unit identifiers from files in folder.
func UseLocalDiscovery(folder string) OptionFunc {
	return func(m *Migrator) error {
		m.discovery = discovery.NewLocalDiscovery(folder)
		return nil
	}
}

// UseInMemoryDiscovery serves a fixed identifier list.
func UseInMemoryDiscovery(ids ...string) OptionFunc {
	return func(m *Migrator) error {
		m.discovery = discovery.NewInMemoryDiscovery(ids...)
		return nil
	}
}

// UseInMemoryLedger keeps the ledger in process memory, optionally
// seeded with existing entries.
func UseInMemoryLedger(entries ...Entry) OptionFunc {
	return func(m *Migrator) error {
		m.ledger = ledger.NewInMemoryLedger(entries...)
		return nil
	}
}

type ledgerConfig struct {
	table   string
	charset string
}

type LedgerConfigurator func(*ledgerConfig)

// WithLedgerTable overrides the default "migrations" table name.
func WithLedgerTable(table string) LedgerConfigurator {
	return func(cfg *ledgerConfig) {
		cfg.table = table
	}
}

// WithMySQLCharset overrides the charset of a freshly created mysql
// ledger table.
func WithMySQLCharset(charset string) LedgerConfigurator {
	return func(cfg *ledgerConfig) {
		cfg.charset = charset
	}
}

// UseSqliteLedger persists the ledger in an sqlite table.
func UseSqliteLedger(db *sql.DB, cfgs ...LedgerConfigurator) OptionFunc {
	return useSQLLedger(db, ledger.SqliteDialect{}, cfgs...)
}

// UseMySQLLedger persists the ledger in a mysql table.
func UseMySQLLedger(db *sql.DB, cfgs ...LedgerConfigurator) OptionFunc {
	return func(m *Migrator) error {
		var cfg ledgerConfig
		for _, c := range cfgs {
			c(&cfg)
		}

		m.ledger = ledger.NewSQLLedger(db, cfg.table, ledger.NewMySQLDialect(cfg.charset))
		if m.ex == nil {
			m.ex = db
		}

		return nil
	}
}

// UsePostgresLedger persists the ledger in a postgres table.
func UsePostgresLedger(db *sql.DB, cfgs ...LedgerConfigurator) OptionFunc {
	return useSQLLedger(db, ledger.PostgresDialect{}, cfgs...)
}

func useSQLLedger(db *sql.DB, d ledger.Dialect, cfgs ...LedgerConfigurator) OptionFunc {
	return func(m *Migrator) error {
		var cfg ledgerConfig
		for _, c := range cfgs {
			c(&cfg)
		}

		m.ledger = ledger.NewSQLLedger(db, cfg.table, d)
		if m.ex == nil {
			m.ex = db
		}

		return nil
	}
}
