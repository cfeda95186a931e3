package memory

import (
	"context"
	"sort"

	"shopbridge/internal/domain"
	"shopbridge/internal/repository/order"
)

type OrderRepo struct {
	s *Store
}

var _ order.Repository = (*OrderRepo)(nil)

func (r *OrderRepo) Create(_ context.Context, o domain.Order) (*domain.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o.IdempotencyKey != "" {
		if id, ok := r.s.orderKeys[o.IdempotencyKey]; ok {
			existing := cloneOrder(r.s.orders[id])
			return &existing, false, nil
		}
	}
	r.s.nextOrderID++
	o.ID = r.s.nextOrderID
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	stored := cloneOrder(o)
	r.s.orders[o.ID] = stored
	if o.IdempotencyKey != "" {
		r.s.orderKeys[o.IdempotencyKey] = o.ID
	}
	out := cloneOrder(stored)
	return &out, true, nil
}

func (r *OrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

func (r *OrderRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	r.s.mu.RLock()
	id, ok := r.s.orderKeys[key]
	r.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *OrderRepo) ListByPrincipal(_ context.Context, principal string) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Order
	for _, o := range r.s.orders {
		if o.Principal == principal {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *OrderRepo) ListAll(_ context.Context, offset, limit int) ([]domain.Order, error) {
	r.s.mu.RLock()
	all := make([]domain.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		all = append(all, cloneOrder(o))
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) || end < offset {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *OrderRepo) Update(_ context.Context, id int64, fn order.UpdateFunc) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	working := cloneOrder(stored)
	if err := fn(&working); err != nil {
		return nil, err
	}
	r.s.orders[id] = cloneOrder(working)
	return &working, nil
}
