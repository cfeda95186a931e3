package seed

import (
	"context"
	"fmt"
	"strings"

	"shopbridge/internal/domain"
	settingsrepo "shopbridge/internal/repository/settings"
	"shopbridge/internal/service/catalog"
	"shopbridge/internal/service/pricing"

	"go.uber.org/zap"
)

type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Import(ctx context.Context, in catalog.AddProductInput) (*domain.Product, error)
}

// Options tune the demo data. A nil Payment leaves checkout unconfigured.
type Options struct {
	MarkupPercent int64
	Payment       *domain.PaymentConfig
}

var demoProducts = []catalog.AddProductInput{
	{
		Name:        "Stainless Steel Water Bottle 1L",
		Description: "Insulated bottle, keeps drinks cold for 24 hours",
		Category:    "Kitchen",
		Platform:    domain.Amazon(),
		BasePrice:   79900,
	},
	{
		Name:        "Wireless Earbuds",
		Description: "Bluetooth 5.3 earbuds with charging case",
		Category:    "Electronics",
		Platform:    domain.Flipkart(),
		BasePrice:   149900,
	},
	{
		Name:        "Cotton Kurta",
		Description: "Hand block printed cotton kurta",
		Category:    "Apparel",
		Platform:    domain.Meesho(),
		BasePrice:   49900,
	},
	{
		Name:        "Toned Milk 1L",
		Description: "Delivered in minutes",
		Category:    "Grocery",
		Platform:    domain.Blinkit(),
		BasePrice:   6800,
	},
	{
		Name:        "Running Shoes",
		Description: "Lightweight mesh running shoes",
		Category:    "Footwear",
		Platform:    domain.OtherPlatform("Myntra"),
		BasePrice:   259900,
	},
}

// Apply sets the markup, optionally configures payment, then adds the demo
// products that are not in the catalog yet. Running it twice adds nothing.
func Apply(ctx context.Context, products Catalog, settings settingsrepo.Repository, opts Options, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := domain.ValidateMarkup(opts.MarkupPercent); err != nil {
		return 0, err
	}
	if _, _, err := settings.ApplyMarkup(ctx, opts.MarkupPercent, pricing.ComputeListedPrice); err != nil {
		return 0, fmt.Errorf("apply markup: %w", err)
	}
	if opts.Payment != nil {
		cfg := *opts.Payment
		if err := cfg.Validate(); err != nil {
			return 0, err
		}
		if _, err := settings.SetPayment(ctx, cfg); err != nil {
			return 0, fmt.Errorf("set payment: %w", err)
		}
	}

	existing, err := products.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[productKey(p.Name, p.Platform)] = true
	}

	added := 0
	for _, in := range demoProducts {
		if seen[productKey(in.Name, in.Platform)] {
			continue
		}
		if _, err := products.Import(ctx, in); err != nil {
			return added, fmt.Errorf("import %s: %w", in.Name, err)
		}
		added++
	}
	logger.Info("seed applied", zap.Int("products_added", added), zap.Int64("markup_percent", opts.MarkupPercent))
	return added, nil
}

func productKey(name string, p domain.Platform) string {
	return strings.ToLower(name) + "|" + p.String()
}
