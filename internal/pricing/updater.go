package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/joseph-ayodele/order-tracker/constants"
	"github.com/joseph-ayodele/order-tracker/internal/common"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
	"github.com/joseph-ayodele/order-tracker/internal/ledger"
	"github.com/joseph-ayodele/order-tracker/internal/metrics"
	"github.com/joseph-ayodele/order-tracker/internal/store"
)

// RowStore is the part of the workbook store the updater needs.
type RowStore interface {
	Load(ctx context.Context) ([]store.Row, error)
	Save(ctx context.Context, rows []store.Row) error
}

// Lookuper fetches prices for one product code.
type Lookuper interface {
	Lookup(ctx context.Context, code string) entity.PriceDetails
}

// UpdateSummary counts what a price run did.
type UpdateSummary struct {
	Rows    int // data rows in the workbook
	Skipped int // empty or fee codes
	Lookups int // network lookups
	Updated int // rows given a current price
	Changed int // rows whose stored current price differed
	Drops   int // rows whose current price is below the unit price
	Missing int // rows with no price found
}

// Updater refreshes the current price column of the order summary.
type Updater struct {
	store   RowStore
	lookup  Lookuper
	prices  ledger.PriceRepository
	cache   Cache
	metrics *metrics.Registry
	logger  *slog.Logger

	minDelay, maxDelay time.Duration
	// sleep waits between lookups; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// UpdaterConfig holds the delay bounds between network lookups.
type UpdaterConfig struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// UpdaterOption customizes an Updater.
type UpdaterOption func(*Updater)

// WithCache consults c before the network and stores found prices in it.
func WithCache(c Cache) UpdaterOption {
	return func(u *Updater) {
		if c != nil {
			u.cache = c
		}
	}
}

func NewUpdater(cfg UpdaterConfig, st RowStore, lookup Lookuper, prices ledger.PriceRepository, m *metrics.Registry, logger *slog.Logger, opts ...UpdaterOption) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	if prices == nil {
		prices = (*ledger.DB)(nil).Prices()
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	u := &Updater{
		store:    st,
		lookup:   lookup,
		prices:   prices,
		metrics:  m,
		logger:   logger,
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		sleep:    sleepCtx,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (u *Updater) delay() time.Duration {
	span := u.maxDelay - u.minDelay
	if span <= 0 {
		return u.minDelay
	}
	return u.minDelay + time.Duration(rand.Int63n(int64(span+1)))
}

// Run looks up every product code in the workbook once, writes the current
// price into each row and highlights rows whose price changed or fell
// below the unit price. The workbook is rewritten once at the end.
func (u *Updater) Run(ctx context.Context) (UpdateSummary, error) {
	var sum UpdateSummary
	rows, err := u.store.Load(ctx)
	if err != nil {
		return sum, fmt.Errorf("load store: %w", err)
	}
	sum.Rows = len(rows)

	seen := make(map[string]entity.PriceDetails)
	for i := range rows {
		row := &rows[i]
		code := row.ProductCode
		if code == "" || constants.HasFeePrefix(code) {
			sum.Skipped++
			continue
		}

		details, cached := seen[code]
		fetched := false
		switch {
		case cached:
			u.metrics.PriceLookups.WithLabelValues("cached").Inc()
		case u.fromCache(ctx, code, &details):
			seen[code] = details
			u.metrics.PriceLookups.WithLabelValues("cache_hit").Inc()
		default:
			details = u.lookup.Lookup(ctx, code)
			seen[code] = details
			fetched = true
			sum.Lookups++
			if details.Found() {
				u.metrics.PriceLookups.WithLabelValues("found").Inc()
				u.toCache(ctx, details)
			} else {
				u.metrics.PriceLookups.WithLabelValues("missing").Inc()
			}
			u.compareHistory(ctx, details)
			if err := u.prices.Record(ctx, details); err != nil {
				u.logger.Warn("price observation not recorded", "product_code", code, "error", err)
			}
		}

		u.apply(row, details, &sum)

		if fetched {
			if err := u.sleep(ctx, u.delay()); err != nil {
				return sum, err
			}
		}
	}

	if err := u.store.Save(ctx, rows); err != nil {
		return sum, err
	}
	u.logger.Info("price update finished",
		"rows", sum.Rows,
		"lookups", sum.Lookups,
		"updated", sum.Updated,
		"changed", sum.Changed,
		"drops", sum.Drops,
		"missing", sum.Missing,
	)
	return sum, nil
}

// compareHistory logs how a lookup relates to the last recorded observation.
func (u *Updater) compareHistory(ctx context.Context, details entity.PriceDetails) {
	prev, err := u.prices.Latest(ctx, details.ProductCode)
	if errors.Is(err, common.ErrNotFound) || (err == nil && !prev.CurrentPrice.Valid) {
		return
	}
	if err != nil {
		u.logger.Warn("price history unavailable", "product_code", details.ProductCode, "error", err)
		return
	}
	switch {
	case !details.Found():
		u.logger.Info("price not found, last known price kept in history",
			"product_code", details.ProductCode,
			"last_price", prev.CurrentPrice.Decimal.String(),
			"observed_at", prev.ObservedAt)
	case !prev.CurrentPrice.Decimal.Equal(details.CurrentPrice.Decimal):
		u.logger.Info("price moved since last check",
			"product_code", details.ProductCode,
			"last_price", prev.CurrentPrice.Decimal.String(),
			"current", details.CurrentPrice.Decimal.String(),
			"observed_at", prev.ObservedAt)
	}
}

func (u *Updater) fromCache(ctx context.Context, code string, out *entity.PriceDetails) bool {
	if u.cache == nil {
		return false
	}
	details, ok, err := u.cache.Get(ctx, code)
	if err != nil {
		u.logger.Warn("price cache read failed", "product_code", code, "error", err)
		return false
	}
	if ok {
		*out = details
	}
	return ok
}

func (u *Updater) toCache(ctx context.Context, details entity.PriceDetails) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Set(ctx, details); err != nil {
		u.logger.Warn("price cache write failed", "product_code", details.ProductCode, "error", err)
	}
}

func (u *Updater) apply(row *store.Row, details entity.PriceDetails, sum *UpdateSummary) {
	if !details.Found() {
		sum.Missing++
		u.logger.Warn("no price found", "product_code", row.ProductCode)
		return
	}
	current := details.CurrentPrice.Decimal
	existing := row.CurrentPrice
	row.CurrentPrice = details.CurrentPrice
	sum.Updated++

	if existing.Valid && !existing.Decimal.IsZero() && !existing.Decimal.Equal(current) {
		u.logger.Info("price changed", "product_code", row.ProductCode,
			"previous", existing.Decimal.String(), "current", current.String())
		row.Highlight = true
		sum.Changed++
	}
	if row.UnitPrice.Valid && !row.UnitPrice.Decimal.IsZero() && current.LessThan(row.UnitPrice.Decimal) {
		u.logger.Info("current price below unit price", "product_code", row.ProductCode,
			"unit_price", row.UnitPrice.Decimal.String(), "current", current.String())
		row.Highlight = true
		sum.Drops++
		u.metrics.PriceDrops.Inc()
	}
}
