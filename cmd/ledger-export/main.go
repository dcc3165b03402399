// ledger-export writes one month of the ledger to an xlsx file from the
// command line, using the same backend configuration as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/cli"
	"ledgerbook/internal/core"
	"ledgerbook/internal/export"
	"ledgerbook/internal/ledger"
)

func main() {
	now := time.Now()
	year := flag.Int("year", now.Year(), "year to export")
	month := flag.Int("month", int(now.Month()), "month to export (1-12)")
	out := flag.String("out", "", "output file (default ledger_<yyyymm>.xlsx)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if *month < 1 || *month > 12 {
		logger.Error("Invalid month", "month", *month)
		os.Exit(1)
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("ledger_%04d%02d.xlsx", *year, *month)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, cleanup, err := backend.BuildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to build store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Error("Cleanup error", "error", err)
		}
	}()

	svc := ledger.NewService(st, core.DefaultCategories())

	f, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create output file", "error", err, "path", path)
		os.Exit(1)
	}
	defer f.Close()

	if err := export.New(svc).WriteMonth(ctx, f, *year, *month); err != nil {
		logger.Error("Export failed", "error", err, "year", *year, "month", *month)
		os.Remove(path)
		os.Exit(1)
	}

	logger.Info("Export complete", "path", path, "year", *year, "month", *month)
}
