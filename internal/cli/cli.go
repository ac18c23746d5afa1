package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/plover-db/plover"
	"github.com/plover-db/plover/internal/discovery"
)

var (
	ErrUnitAlreadyExists = errors.New("unit already exists")
	ErrFolderInvalid     = errors.New("migrations folder is invalid")
)

type (
	CloserFunc func() error

	Config struct {
		DatabaseURL string
		UnitsFolder string
		LedgerTable string
	}

	App struct {
		folder   string
		migrator *plover.Migrator
	}
)

func NewFromYaml(path string) (*App, CloserFunc, error) {
	cfg, err := createConfigFromYaml(path)
	if err != nil {
		return nil, nil, err
	}

	return New(cfg)
}

func New(cfg Config) (*App, CloserFunc, error) {
	m, closer, err := createMigrator(cfg)
	if err != nil {
		return nil, nil, err
	}

	return &App{
		folder:   cfg.UnitsFolder,
		migrator: m,
	}, CloserFunc(closer), nil
}

// CreateUnit scaffolds a timestamped unit file in the migrations
// folder and returns its path.
func (app *App) CreateUnit(name string) (string, error) {
	ld := discovery.NewLocalDiscovery(app.folder)
	if !ld.IsValid() {
		return "", ErrFolderInvalid
	}

	id := discovery.GenerateID(time.Now(), name)
	if ld.AlreadyExists(id) {
		return "", errors.Wrapf(ErrUnitAlreadyExists, "[%s]", id)
	}

	return ld.Create(id)
}

func (app *App) Migrate(ctx context.Context) ([]string, error) {
	return app.migrator.Migrate(ctx)
}

func (app *App) Rollback(ctx context.Context) ([]string, error) {
	return app.migrator.Rollback(ctx)
}

func (app *App) Reset(ctx context.Context) ([]string, error) {
	return app.migrator.Reset(ctx)
}

func (app *App) Refresh(ctx context.Context) ([]string, []string, error) {
	return app.migrator.Refresh(ctx)
}

func (app *App) Status(ctx context.Context) ([]plover.UnitStatus, error) {
	return app.migrator.Status(ctx)
}

// InitCfg writes a starter configuration file.
func InitCfg(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create config file")
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()

	r := strings.NewReader(configFileStub)

	if _, err := io.Copy(f, r); err != nil {
		return err
	}

	return nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}

	return !info.IsDir()
}
