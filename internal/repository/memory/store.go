// Package memory implements every repository on a single in-process store.
// It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"sync"
	"time"

	"shopbridge/internal/domain"
)

// Store holds all state behind one lock so multi-record writes such as a
// markup rewrite are observed atomically.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	settings domain.Settings

	products      map[int64]domain.Product
	nextProductID int64

	orders      map[int64]domain.Order
	orderKeys   map[string]int64
	nextOrderID int64

	sessions map[string]domain.CheckoutSession
	roles    map[string]domain.RoleAssignment

	users      map[string]domain.UserProfile
	userEmails map[string]string
}

func NewStore() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		products:   map[int64]domain.Product{},
		orders:     map[int64]domain.Order{},
		orderKeys:  map[string]int64{},
		sessions:   map[string]domain.CheckoutSession{},
		roles:      map[string]domain.RoleAssignment{},
		users:      map[string]domain.UserProfile{},
		userEmails: map[string]string{},
	}
}

func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }
func (s *Store) Settings() *SettingsRepo { return &SettingsRepo{s: s} }
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s: s} }
func (s *Store) Sessions() *SessionRepo { return &SessionRepo{s: s} }
func (s *Store) Roles() *RoleRepo { return &RoleRepo{s: s} }
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

func cloneOrder(o domain.Order) domain.Order {
	o.Products = append([]domain.OrderedProduct(nil), o.Products...)
	return o
}

func cloneSettings(st domain.Settings) domain.Settings {
	if st.Payment != nil {
		p := *st.Payment
		p.AllowedCountries = append([]string(nil), p.AllowedCountries...)
		st.Payment = &p
	}
	return st
}
