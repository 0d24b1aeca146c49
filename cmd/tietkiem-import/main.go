// Command tietkiem-import loads a CSV bank statement into an account.
//
// Usage:
//
//	tietkiem-import -db ./data/tietkiem.db -account 3 statement.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tietkiem/internal/cli"
	"tietkiem/internal/config"
	applog "tietkiem/internal/log"
	"tietkiem/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DatabasePath, "path to the SQLite database")
	accountID := flag.Int64("account", 0, "id of the account to import into")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -db path -account ID file.csv\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *accountID <= 0 || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := cli.SetupLogger(cfg, applog.ComponentImport)
	os.Exit(run(context.Background(), logger, *dbPath, *accountID, flag.Arg(0)))
}

func run(ctx context.Context, logger *applog.Logger, dbPath string, accountID int64, file string) int {
	f, err := os.Open(file)
	if err != nil {
		logger.Error("Failed to open statement", applog.FieldError, err, "file", file)
		return 1
	}
	defer f.Close()

	gw := cli.InitDatabase(logger, dbPath)
	defer gw.Close()

	result, err := services.NewAccountService(gw).ImportCSVStatement(ctx, accountID, f)
	if err != nil {
		logger.Error("Import failed", applog.FieldError, err, applog.FieldAccountID, accountID)
		return 1
	}

	for _, rowErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "row %d: %s\n", rowErr.Row, rowErr.Message)
	}
	fmt.Printf("Imported %d transactions into account %d (%d rows rejected)\n",
		result.Imported, accountID, len(result.Errors))

	if result.Imported == 0 && len(result.Errors) > 0 {
		return 1
	}
	return 0
}
