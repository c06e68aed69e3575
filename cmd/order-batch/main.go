package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/order-tracker/internal/common"
	"github.com/joseph-ayodele/order-tracker/internal/core"
	"github.com/joseph-ayodele/order-tracker/internal/extract"
	"github.com/joseph-ayodele/order-tracker/internal/ledger"
	"github.com/joseph-ayodele/order-tracker/internal/metrics"
	"github.com/joseph-ayodele/order-tracker/internal/pdftext"
	"github.com/joseph-ayodele/order-tracker/internal/store"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := ledger.Open(ctx, ledger.Config{
		DSN:             cfg.Ledger.DSN,
		MaxConns:        cfg.Ledger.MaxConns,
		MaxConnLifetime: cfg.Ledger.MaxConnLifetime,
		DialTimeout:     cfg.Ledger.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to migrate ledger", "error", err)
		os.Exit(1)
	}

	validator, err := extract.NewRecordValidator()
	if err != nil {
		logger.Error("failed to compile record schema", "error", err)
		os.Exit(1)
	}

	m := metrics.NewRegistry()
	pages := pdftext.NewExtractor(pdftext.Config{Pdftotext: cfg.PDF.Pdftotext}, logger)
	proc := core.NewProcessor(core.ProcessorConfig{
		Timeout:       cfg.Extract.DocumentTimeout,
		SkipProcessed: cfg.Extract.SkipProcessed,
	}, pages, extract.NewExtractor(validator, logger), db.Jobs(), m, logger)

	st := store.NewXLSXStore(cfg.Paths.StorePath, cfg.Paths.StoreSheet, logger)
	batch := core.NewBatch(core.BatchConfig{
		DocumentDir:     cfg.Paths.DocumentDir,
		Recursive:       cfg.Paths.Recursive,
		Workers:         cfg.Extract.Workers,
		MetricsTextfile: cfg.Metrics.Textfile,
	}, proc, st, m, logger)

	if cfg.Watch.Enabled {
		if cfg.Metrics.Addr != "" {
			handler := m.Handler(func(ctx context.Context) error { return db.HealthCheck(ctx, time.Second) })
			go func() {
				if err := metrics.Serve(ctx, cfg.Metrics.Addr, handler, logger); err != nil {
					logger.Error("metrics server stopped", "error", err)
				}
			}()
		}
		if err := batch.Watch(ctx, cfg.Watch.Debounce); err != nil {
			logger.Error("watch stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	sum, err := batch.Run(ctx)
	if err != nil {
		if errors.Is(err, common.ErrPersistence) {
			logger.Error("failed to save order summary", "store", st.Path(), "error", err)
		} else {
			logger.Error("batch failed", "error", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents: %d\n", sum.Documents)
	fmt.Printf("- Succeeded: %d\n", sum.Succeeded)
	fmt.Printf("- Failed: %d\n", sum.Failed)
	if sum.Skipped > 0 {
		fmt.Printf("- Skipped: %d\n", sum.Skipped)
	}
	fmt.Printf("- Records: %d\n", sum.Records)
	fmt.Printf("- Output: %s (%d rows)\n", st.Path(), sum.StoreRows)
	fmt.Printf("- Elapsed: %s\n", sum.Elapsed.Round(time.Millisecond))
}
