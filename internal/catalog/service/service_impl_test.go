package service

import (
	"os"
	"path/filepath"
	"testing"

	catalogdomain "github.com/Gizz1e/Gizzle/internal/catalog/domain"
	"github.com/Gizz1e/Gizzle/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultCatalogPlansInOrder(t *testing.T) {
	svc := Default()

	plans := svc.ListPlans()
	require.Len(t, plans, 3)
	assert.Equal(t, "basic", plans[0].ID)
	assert.Equal(t, "premium", plans[1].ID)
	assert.Equal(t, "vip", plans[2].ID)
	assert.True(t, plans[1].IsPopular)
	assert.True(t, plans[0].Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, "usd", plans[2].Currency)
}

func TestGetPlanTrimsWhitespace(t *testing.T) {
	plan, err := Default().GetPlan("  premium ")
	require.NoError(t, err)
	assert.Equal(t, "Premium Plan", plan.Name)
	assert.True(t, plan.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestGetPlanIsCaseSensitive(t *testing.T) {
	_, err := Default().GetPlan("Premium")
	assert.ErrorIs(t, err, catalogdomain.ErrNotFound)
}

func TestGetUnknownEntries(t *testing.T) {
	svc := Default()

	_, err := svc.GetPlan("platinum")
	assert.ErrorIs(t, err, catalogdomain.ErrNotFound)

	_, err = svc.GetItem("")
	assert.ErrorIs(t, err, catalogdomain.ErrNotFound)
}

func TestGetItem(t *testing.T) {
	item, err := Default().GetItem("live_stream_hours")
	require.NoError(t, err)
	assert.Equal(t, "Live Stream Hours", item.Name)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, "usd", item.Currency)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	svc := Default()

	plans := svc.ListPlans()
	plans[0].Name = "Hacked"
	plans[0].Features[0] = "nothing"

	plan, err := svc.GetPlan("basic")
	require.NoError(t, err)
	plan.Features = append(plan.Features[:0], "overwritten")

	again, err := svc.GetPlan("basic")
	require.NoError(t, err)
	assert.Equal(t, "Basic Plan", again.Name)
	assert.Equal(t, "Upload videos up to 100MB", again.Features[0])

	items := svc.ListItems()
	items[0].Price = decimal.Zero
	item, err := svc.GetItem(items[0].ID)
	require.NoError(t, err)
	assert.True(t, item.Price.IsPositive())
}

func TestNewStaticRejectsInvalidDefinitions(t *testing.T) {
	price := decimal.RequireFromString("1.00")

	_, err := NewStatic([]catalogdomain.Plan{
		{ID: "a", Price: price, Currency: "usd"},
		{ID: " a ", Price: price, Currency: "usd"},
	}, nil)
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidCatalog)

	_, err = NewStatic([]catalogdomain.Plan{{ID: "free", Price: decimal.Zero, Currency: "usd"}}, nil)
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidCatalog)

	_, err = NewStatic(nil, []catalogdomain.Item{{ID: "x", Price: price}})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidCatalog)
}

func TestNewLoadsCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plans:
  - id: starter
    name: Starter
    price: "4.50"
    currency: EUR
    interval: yearly
    features: ["One upload"]
items:
  - id: boost
    name: Boost
    price: "1.25"
    currency: eur
    description: Boost a post
`), 0o600))

	svc, err := New(Params{Cfg: config.Config{CatalogFile: path}, Log: zap.NewNop()})
	require.NoError(t, err)

	plans := svc.ListPlans()
	require.Len(t, plans, 1)
	assert.Equal(t, "eur", plans[0].Currency)
	assert.Equal(t, catalogdomain.Yearly, plans[0].Interval)
	assert.True(t, plans[0].Price.Equal(decimal.RequireFromString("4.5")))

	item, err := svc.GetItem("boost")
	require.NoError(t, err)
	assert.Equal(t, "Boost a post", item.Description)
}

func TestLoadFileRejectsBadPrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plans:\n  - id: x\n    price: cheap\n    currency: usd\n"), 0o600))

	_, _, err := LoadFile(path)
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidCatalog)
}
