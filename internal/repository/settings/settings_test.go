package settings

import (
	"context"
	"testing"

	"shopbridge/internal/db/dbtest"
	"shopbridge/internal/domain"
)

func price(base, markup int64) int64 {
	return base + base*markup/100
}

func TestPostgres_ApplyMarkupRepricesAll(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	for _, base := range []int64{1000, 333, 0} {
		if _, err := pool.Exec(ctx, `
INSERT INTO products (name, platform_kind, base_price, listed_price) VALUES ('p', 'amazon', $1, $1)
`, base); err != nil {
			t.Fatalf("insert product: %v", err)
		}
	}

	repo := NewPostgres(pool, nil)
	s, n, err := repo.ApplyMarkup(ctx, 20, price)
	if err != nil {
		t.Fatalf("ApplyMarkup: %v", err)
	}
	if n != 3 || s.MarkupPercent != 20 || s.Version != 1 {
		t.Fatalf("unexpected result n=%d settings=%+v", n, s)
	}

	rows, err := pool.Query(ctx, `SELECT base_price, listed_price FROM products ORDER BY id`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	want := map[int64]int64{1000: 1200, 333: 399, 0: 0}
	for rows.Next() {
		var base, listed int64
		if err := rows.Scan(&base, &listed); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if want[base] != listed {
			t.Fatalf("base %d: expected listed %d, got %d", base, want[base], listed)
		}
	}
}

func TestPostgres_SetPayment(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	before, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if before.Payment != nil {
		t.Fatalf("expected no payment config, got %+v", before.Payment)
	}

	after, err := repo.SetPayment(ctx, domain.PaymentConfig{SecretKey: "sk_test_1", AllowedCountries: []string{"IN", "US"}})
	if err != nil {
		t.Fatalf("SetPayment: %v", err)
	}
	if after.Payment == nil || after.Payment.SecretKey != "sk_test_1" || len(after.Payment.AllowedCountries) != 2 {
		t.Fatalf("unexpected payment config %+v", after.Payment)
	}
	if after.Version != before.Version+1 {
		t.Fatalf("expected version bump, got %d -> %d", before.Version, after.Version)
	}
}
