package cli

import (
	"context"
	"io/ioutil"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/plover-db/plover"
	"github.com/plover-db/plover/internal/ledger"
	"github.com/xo/dburl"
	"gopkg.in/yaml.v2"
)

const configFileStub = `version: "1.0"

migrations:
  local_folder: "%%PLOVER_MIGRATIONS_FOLDER%%"
  database_url: "%%PLOVER_DATABASE_URL%%"
  ledger_table: "migrations"
`

type (
	migratorFactory    func(cfg Config, dsn string) (*plover.Migrator, plover.CloserFunc, error)
	migratorFactoryMap map[string]migratorFactory

	migrationsSection struct {
		LocalFolder string `yaml:"local_folder"`
		DatabaseURL string `yaml:"database_url"`
		LedgerTable string `yaml:"ledger_table"`
	}

	configFile struct {
		Version    string            `yaml:"version"`
		Migrations migrationsSection `yaml:"migrations"`
	}
)

func createConfigFromYaml(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "could not open plover configuration file")
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return cfg, errors.Wrap(err, "could not read plover configuration file")
	}

	var cfgFile configFile
	if err := yaml.Unmarshal(b, &cfgFile); err != nil {
		return cfg, errors.Wrap(err, "could not parse plover configuration file")
	}

	cfg.DatabaseURL = resolveEnvIndirection(cfgFile.Migrations.DatabaseURL)
	cfg.UnitsFolder = resolveEnvIndirection(cfgFile.Migrations.LocalFolder)
	cfg.LedgerTable = resolveEnvIndirection(cfgFile.Migrations.LedgerTable)

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("database url was not defined")
	}

	if cfg.UnitsFolder == "" {
		return cfg, errors.New("migrations folder was not defined")
	}

	return cfg, nil
}

// values wrapped in %% refer to environment variables
func resolveEnvIndirection(v string) string {
	if strings.HasPrefix(v, "%%") && strings.HasSuffix(v, "%%") {
		return os.Getenv(strings.ReplaceAll(v, "%%", ""))
	}

	return v
}

func createMigrator(cfg Config) (*plover.Migrator, plover.CloserFunc, error) {
	u, err := dburl.Parse(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not parse database url [%s]", cfg.DatabaseURL)
	}

	factoryMap := make(migratorFactoryMap)
	factoryMap["sqlite3"] = createSqliteMigrator
	factoryMap["mysql"] = createMySQLMigrator
	factoryMap["postgres"] = createPostgresMigrator

	factory, ok := factoryMap[u.Driver]
	if !ok {
		return nil, nil, errors.Errorf("unsupported database driver [%s]", u.Driver)
	}

	return factory(cfg, u.DSN)
}

func createSqliteMigrator(cfg Config, dsn string) (*plover.Migrator, plover.CloserFunc, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, err
	}

	return buildMigrator(cfg, db, plover.UseSqliteLedger(db.DB, plover.WithLedgerTable(cfg.LedgerTable)))
}

func createMySQLMigrator(cfg Config, dsn string) (*plover.Migrator, plover.CloserFunc, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}

	return buildMigrator(cfg, db, plover.UseMySQLLedger(db.DB, plover.WithLedgerTable(cfg.LedgerTable)))
}

func createPostgresMigrator(cfg Config, dsn string) (*plover.Migrator, plover.CloserFunc, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}

	return buildMigrator(cfg, db, plover.UsePostgresLedger(db.DB, plover.WithLedgerTable(cfg.LedgerTable)))
}

func buildMigrator(cfg Config, db *sqlx.DB, ledgerOpt plover.OptionFunc) (*plover.Migrator, plover.CloserFunc, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ledger.WaitForStore(ctx, db.DB, &ledger.ConnectOptions{MaxAttempts: 5, RetryStep: 500 * time.Millisecond}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, nil, errors.Wrap(err, closeErr.Error())
		}

		return nil, nil, err
	}

	opts := []plover.OptionFunc{
		ledgerOpt,
		plover.UseLocalDiscovery(cfg.UnitsFolder),
		plover.UseLogger(log.New(os.Stdout, "", 0), true, false),
		plover.UseCloser(db.Close),
	}

	return plover.NewMigrator(opts...)
}
