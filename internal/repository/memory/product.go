package memory

import (
	"context"
	"strings"

	"shopbridge/internal/domain"
	"shopbridge/internal/repository/product"
)

type ProductRepo struct {
	s *Store
}

var _ product.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	return r.Search(ctx, product.SearchInput{})
}

func (r *ProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepo) Search(_ context.Context, in product.SearchInput) ([]domain.Product, error) {
	term := strings.ToLower(strings.TrimSpace(in.Term))
	category := strings.TrimSpace(in.Category)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Product
	for id := int64(1); id <= r.s.nextProductID; id++ {
		p, ok := r.s.products[id]
		if !ok {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) && !strings.Contains(strings.ToLower(p.Description), term) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if in.Platform != nil {
			if p.Platform.Kind() != in.Platform.Kind() {
				continue
			}
			if in.Platform.Kind() == domain.PlatformOther && !strings.EqualFold(p.Platform.Label(), in.Platform.Label()) {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProductRepo) Create(_ context.Context, p domain.Product, price domain.PriceFunc) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextProductID++
	p.ID = r.s.nextProductID
	p.ListedPrice = price(p.BasePrice, r.s.settings.MarkupPercent)
	p.CreatedAt = r.s.now()
	r.s.products[p.ID] = p
	return &p, nil
}
