package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/order-tracker/internal/common"
	"github.com/joseph-ayodele/order-tracker/internal/ledger"
	"github.com/joseph-ayodele/order-tracker/internal/metrics"
	"github.com/joseph-ayodele/order-tracker/internal/pricing"
	"github.com/joseph-ayodele/order-tracker/internal/store"
)

func main() {
	cfg, err := common.LoadConfig()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		if _, werr := fmt.Fprintf(os.Stderr, "Error: %v\n", err); werr != nil {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(2)
	}

	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.NewXLSXStore(cfg.Paths.StorePath, cfg.Paths.StoreSheet, logger)
	if _, err := os.Stat(st.Path()); err != nil {
		logger.Error("order summary not found", "store", st.Path(), "error", err)
		os.Exit(1)
	}

	db, err := ledger.Open(ctx, ledger.Config{
		DSN:             cfg.Ledger.DSN,
		MaxConns:        cfg.Ledger.MaxConns,
		MaxConnLifetime: cfg.Ledger.MaxConnLifetime,
		DialTimeout:     cfg.Ledger.DialTimeout,
	}, logger)
	if err != nil {
		logger.Warn("ledger unavailable, price history not recorded", "error", err)
		db = nil
	} else if err := db.Migrate(ctx); err != nil {
		logger.Warn("ledger migration failed, price history not recorded", "error", err)
		db.Close()
		db = nil
	}
	defer db.Close()

	var opts []pricing.UpdaterOption
	if cfg.Pricing.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Pricing.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("price cache unavailable", "addr", cfg.Pricing.RedisAddr, "error", err)
		} else {
			opts = append(opts, pricing.WithCache(pricing.NewRedisCache(rdb, cfg.Pricing.CacheTTL)))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("redis close", "error", err)
			}
		}()
	}

	m := metrics.NewRegistry()
	client := pricing.NewClient(pricing.Config{BaseURL: cfg.Pricing.BaseURL, Timeout: cfg.Pricing.Timeout}, nil, logger)
	updater := pricing.NewUpdater(pricing.UpdaterConfig{
		MinDelay: cfg.Pricing.MinDelay,
		MaxDelay: cfg.Pricing.MaxDelay,
	}, st, client, db.Prices(), m, logger, opts...)

	sum, err := updater.Run(ctx)
	if werr := m.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
		logger.Warn("metrics textfile not written", "error", werr)
	}
	if err != nil {
		logger.Error("price check failed", "store", st.Path(), "error", err)
		os.Exit(1)
	}

	fmt.Printf("Price check complete!\n")
	fmt.Printf("- Rows: %d\n", sum.Rows)
	fmt.Printf("- Lookups: %d\n", sum.Lookups)
	fmt.Printf("- Updated: %d\n", sum.Updated)
	fmt.Printf("- Changed: %d\n", sum.Changed)
	fmt.Printf("- Below unit price: %d\n", sum.Drops)
	fmt.Printf("- Not found: %d\n", sum.Missing)
}
