package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/order-tracker/internal/common"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

// Observation is one stored price lookup.
type Observation struct {
	ProductCode   string
	OriginalPrice decimal.NullDecimal
	CurrentPrice  decimal.NullDecimal
	OnSale        bool
	SourceURL     string
	ObservedAt    time.Time
}

// PriceRepository keeps the history of retailer price lookups.
type PriceRepository interface {
	Record(ctx context.Context, details entity.PriceDetails) error
	Latest(ctx context.Context, productCode string) (Observation, error)
}

// Prices returns the price repository; a disabled ledger records nothing.
func (d *DB) Prices() PriceRepository {
	if d == nil {
		return nopPrices{}
	}
	return &priceRepo{db: d}
}

type priceRepo struct {
	db *DB
}

func nullString(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func (r *priceRepo) Record(ctx context.Context, p entity.PriceDetails) error {
	q := r.db.builder().Insert("price_observation").
		Columns("id", "product_code", "original_price", "current_price", "on_sale", "source_url", "observed_at").
		Values(uuid.NewString(), p.ProductCode, nullString(p.OriginalPrice), nullString(p.CurrentPrice), p.IsOnSale, p.SourceURL, time.Now().UTC())
	if err := r.db.exec(ctx, q); err != nil {
		return fmt.Errorf("record price %s: %w", p.ProductCode, err)
	}
	return nil
}

func (r *priceRepo) Latest(ctx context.Context, productCode string) (Observation, error) {
	query, args := r.db.builder().
		Select("product_code", "original_price", "current_price", "on_sale", "source_url", "observed_at").
		From(entsql.Table("price_observation")).
		Where(entsql.EQ("product_code", productCode)).
		OrderBy(entsql.Desc("observed_at")).
		Limit(1).
		Query()

	var (
		o               Observation
		orig, cur, from sql.NullString
	)
	err := r.db.drv.DB().QueryRowContext(ctx, query, args...).
		Scan(&o.ProductCode, &orig, &cur, &o.OnSale, &from, &o.ObservedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Observation{}, common.ErrNotFound
	}
	if err != nil {
		return Observation{}, err
	}
	o.OriginalPrice = parseNull(orig)
	o.CurrentPrice = parseNull(cur)
	o.SourceURL = from.String
	return o, nil
}

func parseNull(s sql.NullString) decimal.NullDecimal {
	if !s.Valid {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

type nopPrices struct{}

func (nopPrices) Record(context.Context, entity.PriceDetails) error { return nil }
func (nopPrices) Latest(context.Context, string) (Observation, error) {
	return Observation{}, common.ErrNotFound
}
