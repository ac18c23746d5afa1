package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/logrusorgru/aurora/v3"
	"github.com/plover-db/plover/internal/cli"
	log "github.com/sirupsen/logrus"
)

const defaultConfigPath = "plover.yaml"

func main() {
	migrateCmd := flag.Bool("migrate", false, "apply all pending migration units")
	rollbackCmd := flag.Bool("rollback", false, "revert the units of the last batch")
	resetCmd := flag.Bool("reset", false, "revert every applied unit")
	refreshCmd := flag.Bool("refresh", false, "reset and migrate everything again")
	statusCmd := flag.Bool("status", false, "show ran/pending state per unit")
	createName := flag.String("create", "", "scaffold a new unit file with the given snake_case name")
	initCmd := flag.Bool("init", false, "write a starter plover.yaml")

	configPath := flag.String("config", defaultConfigPath, "path to the yaml configuration file")
	databaseURL := flag.String("db", "", "database URL, overrides the configuration file")
	folder := flag.String("folder", "", "migrations folder, overrides the configuration file")
	table := flag.String("table", "", "ledger table name, overrides the configuration file")

	flag.Parse()

	if *initCmd {
		if err := cli.InitCfg(*configPath); err != nil {
			log.WithError(err).Fatal("could not write configuration file")
		}

		fmt.Println(aurora.Green("plover: "), "configuration written to", *configPath)
		return
	}

	app, closer, err := createApp(*configPath, *databaseURL, *folder, *table)
	if err != nil {
		log.WithError(err).Fatal("could not initialize")
	}

	defer func() {
		if closeErr := closer(); closeErr != nil {
			log.WithError(closeErr).Error("could not close cleanly")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	switch {
	case *migrateCmd:
		ids, err := app.Migrate(ctx)
		exitOn(err)
		report("migrated", ids)
	case *rollbackCmd:
		ids, err := app.Rollback(ctx)
		exitOn(err)
		report("rolled back", ids)
	case *resetCmd:
		ids, err := app.Reset(ctx)
		exitOn(err)
		report("reset", ids)
	case *refreshCmd:
		reverted, applied, err := app.Refresh(ctx)
		exitOn(err)
		report("reset", reverted)
		report("migrated", applied)
	case *statusCmd:
		statuses, err := app.Status(ctx)
		exitOn(err)
		for _, s := range statuses {
			if s.Ran {
				fmt.Println(aurora.Green("ran    "), s.ID, aurora.Gray(15, fmt.Sprintf("batch %d", s.Batch)))
			} else {
				fmt.Println(aurora.Yellow("pending"), s.ID)
			}
		}
	case *createName != "":
		path, err := app.CreateUnit(*createName)
		exitOn(err)
		fmt.Println(aurora.Green("plover: "), "created", path)
	default:
		fmt.Println(aurora.Red("plover: "), "unknown command")
		flag.Usage()
		os.Exit(1)
	}
}

func createApp(configPath, databaseURL, folder, table string) (*cli.App, cli.CloserFunc, error) {
	if databaseURL != "" && folder != "" {
		return cli.New(cli.Config{
			DatabaseURL: databaseURL,
			UnitsFolder: folder,
			LedgerTable: table,
		})
	}

	if !cli.FileExists(configPath) {
		return nil, nil, fmt.Errorf("configuration file [%s] not found and no -db/-folder flags given", configPath)
	}

	return cli.NewFromYaml(configPath)
}

func exitOn(err error) {
	if err != nil {
		fmt.Println(aurora.Red("plover: "), err.Error())
		os.Exit(1)
	}
}

func report(action string, ids []string) {
	if len(ids) == 0 {
		fmt.Println(aurora.Green("plover: "), "nothing to be "+action)
		return
	}

	for _, id := range ids {
		fmt.Println(aurora.Green("plover: "), action, id)
	}
}
