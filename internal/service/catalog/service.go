package catalog

import (
	"context"
	"fmt"
	"strings"

	"shopbridge/internal/cart"
	"shopbridge/internal/domain"
	productrepo "shopbridge/internal/repository/product"
	"shopbridge/internal/service/access"
	"shopbridge/internal/service/pricing"

	"go.uber.org/zap"
)

type Authorizer interface {
	Authorize(ctx context.Context, principal string, action access.Action) (access.Grant, error)
}

type Service struct {
	repo   productrepo.Repository
	gate   Authorizer
	logger *zap.Logger
}

func New(repo productrepo.Repository, gate Authorizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, gate: gate, logger: logger.Named("catalog")}
}

type AddProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	ProductURL  string          `json:"productUrl"`
	Category    string          `json:"category"`
	Platform    domain.Platform `json:"platform"`
	BasePrice   int64           `json:"basePrice"`
}

func (in AddProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: product name required", domain.ErrInvalidArgument)
	}
	if in.Platform.IsZero() {
		return fmt.Errorf("%w: platform required", domain.ErrInvalidArgument)
	}
	if in.BasePrice < 0 {
		return fmt.Errorf("%w: base price cannot be negative", domain.ErrInvalidArgument)
	}
	if in.BasePrice > domain.MaxBasePrice {
		return fmt.Errorf("%w: base price exceeds %d", domain.ErrInvalidArgument, domain.MaxBasePrice)
	}
	return nil
}

// AddProduct stores a product priced under the markup in force at insert.
func (s *Service) AddProduct(ctx context.Context, caller string, in AddProductInput) (*domain.Product, error) {
	if _, err := s.gate.Authorize(ctx, caller, access.ActionManageCatalog); err != nil {
		return nil, err
	}
	return s.Import(ctx, in)
}

// Import stores a product without a caller check. Used by the CSV importer
// and the seeder, which run with operator credentials.
func (s *Service) Import(ctx context.Context, in AddProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		ProductURL:  strings.TrimSpace(in.ProductURL),
		Category:    strings.TrimSpace(in.Category),
		Platform:    in.Platform,
		BasePrice:   in.BasePrice,
	}, pricing.ComputeListedPrice)
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, in productrepo.SearchInput) ([]domain.Product, error) {
	return s.repo.Search(ctx, in)
}

func (s *Service) ListedPrice(ctx context.Context, id int64) (int64, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.ListedPrice, nil
}

type QuoteLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// Quote rebuilds a cart from product ids against current listed prices.
func (s *Service) Quote(ctx context.Context, lines []QuoteLine) (*cart.Cart, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidArgument)
	}
	c := cart.New()
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d quantity must be positive", domain.ErrInvalidArgument, l.ProductID)
		}
		p, err := s.repo.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", l.ProductID, err)
		}
		c.Add(*p, l.Quantity)
	}
	var total int64
	for _, line := range c.Lines() {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d quantity overflows", domain.ErrInvalidArgument, line.ProductID)
		}
		var err error
		if total, err = domain.AddLine(total, line.UnitPrice, line.Quantity); err != nil {
			return nil, err
		}
	}
	return c, nil
}
