package catalog

import (
	"context"
	"math"
	"testing"

	"shopbridge/internal/domain"
	"shopbridge/internal/repository/memory"
	productrepo "shopbridge/internal/repository/product"
	"shopbridge/internal/service/access"
	"shopbridge/internal/service/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *pricing.Service) {
	t.Helper()
	store := memory.NewStore()
	gate := access.New(store.Roles(), []string{"admin"}, nil)
	return New(store.Products(), gate, nil), pricing.New(store.Settings(), gate, nil)
}

func TestAddProductUsesCurrentMarkup(t *testing.T) {
	ctx := context.Background()
	svc, prices := setup(t)
	_, err := prices.SetMarkup(ctx, "admin", 20)
	require.NoError(t, err)

	p, err := svc.AddProduct(ctx, "admin", AddProductInput{Name: " Kettle ", Platform: domain.Amazon(), BasePrice: 1000})
	require.NoError(t, err)
	assert.Equal(t, "Kettle", p.Name)
	assert.Equal(t, int64(1200), p.ListedPrice)

	listed, err := svc.ListedPrice(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), listed)
}

func TestAddProductRejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.AddProduct(ctx, "user", AddProductInput{Name: "x", Platform: domain.Amazon()})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	for _, in := range []AddProductInput{
		{Platform: domain.Amazon()},
		{Name: "x"},
		{Name: "x", Platform: domain.Blinkit(), BasePrice: -1},
		{Name: "x", Platform: domain.Blinkit(), BasePrice: domain.MaxBasePrice + 1},
		{Name: "x", Platform: domain.Amazon(), BasePrice: 100_000_000_000_000_000},
	} {
		_, err := svc.AddProduct(ctx, "admin", in)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
}

func TestListedPriceNeverBelowBaseAtMaxMarkup(t *testing.T) {
	ctx := context.Background()
	svc, prices := setup(t)
	_, err := prices.SetMarkup(ctx, "admin", domain.MaxMarkupPercent)
	require.NoError(t, err)

	p, err := svc.AddProduct(ctx, "admin", AddProductInput{Name: "Gold Bar", Platform: domain.Amazon(), BasePrice: domain.MaxBasePrice})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.ListedPrice, p.BasePrice)
	assert.Equal(t, 2*domain.MaxBasePrice, p.ListedPrice)

	_, err = prices.SetMarkup(ctx, "admin", 37)
	require.NoError(t, err)
	listed, err := svc.ListedPrice(ctx, p.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, listed, p.BasePrice)
}

func TestQuoteRejectsOverflowingTotal(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	p, err := svc.Import(ctx, AddProductInput{Name: "Kettle", Platform: domain.Amazon(), BasePrice: 1000})
	require.NoError(t, err)

	_, err = svc.Quote(ctx, []QuoteLine{{ProductID: p.ID, Quantity: math.MaxInt64 / 100}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.Quote(ctx, []QuoteLine{{ProductID: p.ID, Quantity: math.MaxInt64}, {ProductID: p.ID, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSearchAndQuote(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	kurta, err := svc.Import(ctx, AddProductInput{Name: "Cotton Kurta", Category: "Apparel", Platform: domain.OtherPlatform("Myntra"), BasePrice: 500})
	require.NoError(t, err)
	milk, err := svc.Import(ctx, AddProductInput{Name: "Milk", Category: "Grocery", Platform: domain.Blinkit(), BasePrice: 60})
	require.NoError(t, err)

	myntra := domain.OtherPlatform("myntra")
	found, err := svc.Search(ctx, productrepo.SearchInput{Term: "KURTA", Platform: &myntra})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, kurta.ID, found[0].ID)

	c, err := svc.Quote(ctx, []QuoteLine{{ProductID: kurta.ID, Quantity: 2}, {ProductID: milk.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(1060), c.Total())

	_, err = svc.Quote(ctx, []QuoteLine{{ProductID: 404, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Quote(ctx, []QuoteLine{{ProductID: milk.ID, Quantity: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.Quote(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
