// Package store keeps the three read-collections (users, products,
// orders) consistent with gateway state. It never patches a cached
// entry: every refresh replaces the whole collection, so displayed state
// can be transiently stale but never silently divergent.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/naveenspark/shopterm/pkg/domain"
)

// FetchAPI is the slice of the gateway client the store needs.
type FetchAPI interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

// Mutation identifies which write just completed, so the store can
// re-load exactly the collections it could have changed.
type Mutation int

const (
	// ProductCreated invalidates the catalog.
	ProductCreated Mutation = iota
	// OrderPlaced invalidates the catalog (stock decremented) and orders.
	OrderPlaced
	// OrderCancelled invalidates the catalog (stock may be restored) and orders.
	OrderCancelled
)

// Store holds the process-local collection caches.
type Store struct {
	api FetchAPI

	mu       sync.RWMutex
	users    []domain.User
	products []domain.Product
	orders   []domain.Order
}

// New creates an empty store backed by api.
func New(api FetchAPI) *Store {
	return &Store{api: api}
}

// Users returns the cached user directory.
func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users
}

// Products returns the cached catalog.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

// Orders returns the cached orders.
func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders
}

// OrderByID looks an order up in the cache; cancellation eligibility is
// judged against the most recent orders load.
func (s *Store) OrderByID(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// OnSessionChange applies the load rules for a session transition:
//
//   - session absent: users and orders are cleared immediately, without
//     waiting for a failed fetch; the public catalog is left untouched.
//   - ADMIN: load users and orders.
//   - CUSTOMER: load orders.
//   - SELLER: no private collection loads at all.
func (s *Store) OnSessionChange(ctx context.Context, sess *domain.Session) error {
	if !sess.Valid() {
		s.mu.Lock()
		s.users = nil
		s.orders = nil
		s.mu.Unlock()
		return nil
	}

	var errsAll []error
	if sess.User.Role == domain.RoleAdmin {
		errsAll = append(errsAll, s.RefreshUsers(ctx))
	}
	switch sess.User.Role {
	case domain.RoleAdmin, domain.RoleCustomer:
		errsAll = append(errsAll, s.RefreshOrders(ctx))
	}
	return errors.Join(errsAll...)
}

// AfterMutation re-loads exactly the collections the completed mutation
// could have changed (refetch-over-patch; see package comment).
func (s *Store) AfterMutation(ctx context.Context, m Mutation) error {
	switch m {
	case ProductCreated:
		return s.RefreshProducts(ctx)
	case OrderPlaced, OrderCancelled:
		return errors.Join(s.RefreshProducts(ctx), s.RefreshOrders(ctx))
	}
	return nil
}

// RefreshProducts replaces the catalog cache. The catalog is public and
// fetched independently of auth, at process start and on explicit refresh.
func (s *Store) RefreshProducts(ctx context.Context) error {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
	return nil
}

// RefreshUsers replaces the user directory cache.
func (s *Store) RefreshUsers(ctx context.Context) error {
	users, err := s.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return nil
}

// RefreshOrders replaces the orders cache.
func (s *Store) RefreshOrders(ctx context.Context) error {
	orders, err := s.api.ListOrders(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return nil
}
