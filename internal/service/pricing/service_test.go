package pricing

import (
	"context"
	"testing"

	"shopbridge/internal/domain"
	"shopbridge/internal/repository/memory"
	"shopbridge/internal/service/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeListedPrice(t *testing.T) {
	assert.Equal(t, int64(1200), ComputeListedPrice(1000, 20))
	assert.Equal(t, int64(999), ComputeListedPrice(999, 0))
	assert.Equal(t, int64(1998), ComputeListedPrice(999, 100))
	// floor(333 * 15 / 100) = 49
	assert.Equal(t, int64(382), ComputeListedPrice(333, 15))
	assert.Equal(t, int64(0), ComputeListedPrice(0, 50))
}

func TestComputeListedPriceMonotonic(t *testing.T) {
	for _, base := range []int64{0, 1, 7, 99, 1000, 123457} {
		prev := ComputeListedPrice(base, 0)
		assert.Equal(t, base, prev)
		for m := int64(1); m <= 100; m++ {
			got := ComputeListedPrice(base, m)
			assert.GreaterOrEqual(t, got, prev, "base=%d markup=%d", base, m)
			assert.GreaterOrEqual(t, got, base)
			prev = got
		}
	}
}

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	gate := access.New(store.Roles(), []string{"admin-1"}, nil)
	return New(store.Settings(), gate, nil), store
}

func TestSetMarkupRoundTripRestoresPrices(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	bases := []int64{1000, 333, 1, 0, 4999}
	for _, b := range bases {
		_, err := store.Products().Create(ctx, domain.Product{Name: "p", Platform: domain.Flipkart(), BasePrice: b}, ComputeListedPrice)
		require.NoError(t, err)
	}
	snapshot := func() []int64 {
		list, err := store.Products().List(ctx)
		require.NoError(t, err)
		out := make([]int64, len(list))
		for i, p := range list {
			out[i] = p.ListedPrice
		}
		return out
	}

	_, err := svc.SetMarkup(ctx, "admin-1", 10)
	require.NoError(t, err)
	original := snapshot()

	_, err = svc.SetMarkup(ctx, "admin-1", 35)
	require.NoError(t, err)
	assert.NotEqual(t, original, snapshot())

	st, err := svc.SetMarkup(ctx, "admin-1", 10)
	require.NoError(t, err)
	assert.Equal(t, original, snapshot())
	assert.Equal(t, int64(3), st.Version)
}

func TestSetMarkupScenario(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	p, err := store.Products().Create(ctx, domain.Product{Name: "Kettle", Platform: domain.Amazon(), BasePrice: 1000}, ComputeListedPrice)
	require.NoError(t, err)

	_, err = svc.SetMarkup(ctx, "admin-1", 20)
	require.NoError(t, err)

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got.ListedPrice)

	listed, err := svc.Reprice(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), listed)
}

func TestSetMarkupRejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	// Authorization is checked before the input.
	_, err := svc.SetMarkup(ctx, "user-1", 500)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.SetMarkup(ctx, "", 10)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	for _, bad := range []int64{-1, 101} {
		_, err = svc.SetMarkup(ctx, "admin-1", bad)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}

	markup, err := svc.Markup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), markup)
}
