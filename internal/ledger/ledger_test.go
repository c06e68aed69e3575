package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/order-tracker/internal/common"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{DSN: filepath.Join(t.TempDir(), "ledger.db")}, nil)
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate is idempotent")
	require.NoError(t, db.HealthCheck(ctx, 0))
	return db
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	jobs := openTestDB(t).Jobs()

	ok, err := jobs.HasSucceeded(ctx, "hash-a")
	require.NoError(t, err)
	assert.False(t, ok)

	id, err := jobs.Start(ctx, "run-1", "/in/a.pdf", "hash-a")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	ok, err = jobs.HasSucceeded(ctx, "hash-a")
	require.NoError(t, err)
	assert.False(t, ok, "running job is not a success")

	require.NoError(t, jobs.FinishSuccess(ctx, id, "27123456", 3))
	ok, err = jobs.HasSucceeded(ctx, "hash-a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEmptyAndFailedJobsAreNotSuccesses(t *testing.T) {
	ctx := context.Background()
	jobs := openTestDB(t).Jobs()

	empty, err := jobs.Start(ctx, "run-1", "/in/b.pdf", "hash-b")
	require.NoError(t, err)
	require.NoError(t, jobs.FinishSuccess(ctx, empty, "unknown", 0))

	failed, err := jobs.Start(ctx, "run-1", "/in/c.pdf", "hash-c")
	require.NoError(t, err)
	require.NoError(t, jobs.FinishFailure(ctx, failed, "pdftotext: exit status 1"))

	for _, h := range []string{"hash-b", "hash-c"} {
		ok, err := jobs.HasSucceeded(ctx, h)
		require.NoError(t, err)
		assert.False(t, ok, h)
	}
}

func TestPriceHistory(t *testing.T) {
	ctx := context.Background()
	prices := openTestDB(t).Prices()

	_, err := prices.Latest(ctx, "102.635.24")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, prices.Record(ctx, entity.PriceDetails{
		ProductCode:   "102.635.24",
		OriginalPrice: decimal.NewNullDecimal(decimal.RequireFromString("199")),
		CurrentPrice:  decimal.NewNullDecimal(decimal.RequireFromString("149.5")),
		IsOnSale:      true,
		SourceURL:     "https://example.test/p/-10263524/",
	}))

	got, err := prices.Latest(ctx, "102.635.24")
	require.NoError(t, err)
	assert.Equal(t, "102.635.24", got.ProductCode)
	assert.Equal(t, "199", got.OriginalPrice.Decimal.String())
	assert.Equal(t, "149.5", got.CurrentPrice.Decimal.String())
	assert.True(t, got.OnSale)
	assert.Equal(t, "https://example.test/p/-10263524/", got.SourceURL)
	assert.False(t, got.ObservedAt.IsZero())

	require.NoError(t, prices.Record(ctx, entity.PriceDetails{ProductCode: "403.011.55"}))
	miss, err := prices.Latest(ctx, "403.011.55")
	require.NoError(t, err)
	assert.False(t, miss.CurrentPrice.Valid)
}

func TestDisabledLedger(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, db)

	require.NoError(t, db.Migrate(ctx))
	id, err := db.Jobs().Start(ctx, "run", "/a.pdf", "h")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)
	require.NoError(t, db.Prices().Record(ctx, entity.PriceDetails{ProductCode: "102.635.24"}))
	db.Close()
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, isPostgres("postgres://u:p@localhost:5432/orders"))
	assert.True(t, isPostgres("postgresql://localhost/orders"))
	assert.False(t, isPostgres("orders-ledger.db"))
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "sqlite:///var/lib/orders/ledger.db", migrateURL("/var/lib/orders/ledger.db?_pragma=busy_timeout(5000)"))
	assert.Equal(t, "sqlite://orders-ledger.db", migrateURL("orders-ledger.db"))
	assert.Equal(t, "pgx5://u:p@db:5432/orders?sslmode=disable", migrateURL("postgres://u:p@db:5432/orders?sslmode=disable"))
	assert.Equal(t, "pgx5://db/orders", migrateURL("postgresql://db/orders"))
}
