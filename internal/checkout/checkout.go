// Package checkout drives the mutating storefront flows: placing
// orders, cancelling them, and listing new products. Every flow runs
// the same ladder — session guard, role check, local validation,
// per-resource in-flight lock — before a single byte goes on the wire,
// and re-loads the affected caches after the gateway confirms.
//
// Order submission is idempotency-keyed: a fresh key is generated per
// submit attempt, so a retry of the SAME network call replays safely
// while a deliberate second purchase creates a second order.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/naveenspark/shopterm/internal/authz"
	"github.com/naveenspark/shopterm/internal/errs"
	"github.com/naveenspark/shopterm/internal/store"
	"github.com/naveenspark/shopterm/pkg/client"
	"github.com/naveenspark/shopterm/pkg/domain"
)

// MutationAPI is the slice of the gateway client the checkout flows
// need. *client.Client satisfies it.
type MutationAPI interface {
	CreateProduct(ctx context.Context, req client.CreateProductRequest) (*domain.Product, error)
	CreateOrder(ctx context.Context, productID string, quantity int, idempotencyKey string) (*client.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// Sessions exposes the session checks checkout needs. *session.Store
// satisfies it.
type Sessions interface {
	Guard() error
	Current() *domain.Session
}

// Caches exposes the cache operations checkout needs. *store.Store
// satisfies it.
type Caches interface {
	OrderByID(id string) (domain.Order, bool)
	AfterMutation(ctx context.Context, m store.Mutation) error
}

// Result is the outcome of a successful order submission.
type Result struct {
	Order domain.Order

	// Replay is true when the gateway matched the idempotency key to an
	// already-processed submission and returned the original order.
	Replay bool
}

// Checkout coordinates mutating flows against the gateway.
type Checkout struct {
	api      MutationAPI
	sessions Sessions
	caches   Caches

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(api MutationAPI, sessions Sessions, caches Caches) *Checkout {
	return &Checkout{
		api:      api,
		sessions: sessions,
		caches:   caches,
		inflight: make(map[string]struct{}),
	}
}

// PlaceOrder submits an order for the given product. A non-nil Result
// means the gateway accepted the order even when err is non-nil; in
// that case err reports a cache refresh failure, not an order failure.
func (c *Checkout) PlaceOrder(ctx context.Context, productID string, quantity int) (*Result, error) {
	if err := c.sessions.Guard(); err != nil {
		return nil, err
	}
	if !authz.CanPurchase(c.sessions.Current()) {
		return nil, errs.ErrForbidden
	}
	if productID == "" {
		return nil, &errs.ValidationError{Field: "product", Reason: "missing product id"}
	}
	if quantity < 1 {
		return nil, &errs.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	release, err := c.acquire("product/" + productID)
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := c.api.CreateOrder(ctx, productID, quantity, uuid.NewString())
	if err != nil {
		return nil, err
	}

	res := &Result{Order: resp.Order, Replay: resp.IdempotentReplay}
	// A replayed submission may still have changed stock on its first
	// pass, so the caches reload either way.
	if err := c.caches.AfterMutation(ctx, store.OrderPlaced); err != nil {
		return res, fmt.Errorf("order placed, refreshing caches: %w", err)
	}
	return res, nil
}

// CancelOrder cancels one of the caller's orders. Only orders still in
// CREATED can be cancelled; the owner or an ADMIN may cancel. As with
// PlaceOrder, a non-nil order with a non-nil err means the cancellation
// itself succeeded.
func (c *Checkout) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if err := c.sessions.Guard(); err != nil {
		return nil, err
	}
	order, ok := c.caches.OrderByID(orderID)
	if !ok {
		return nil, &errs.ValidationError{Field: "order", Reason: "unknown order"}
	}
	if !authz.CanCancelOrder(c.sessions.Current(), order) {
		return nil, errs.ErrForbidden
	}

	release, err := c.acquire("order/" + orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	cancelled, err := c.api.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := c.caches.AfterMutation(ctx, store.OrderCancelled); err != nil {
		return cancelled, fmt.Errorf("order cancelled, refreshing caches: %w", err)
	}
	return cancelled, nil
}

// CreateProduct lists a new product in the catalog.
func (c *Checkout) CreateProduct(ctx context.Context, name string, price float64, stock int) (*domain.Product, error) {
	if err := c.sessions.Guard(); err != nil {
		return nil, err
	}
	if !authz.CanCreateProduct(c.sessions.Current()) {
		return nil, errs.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &errs.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if price <= 0 {
		return nil, &errs.ValidationError{Field: "price", Reason: "must be positive"}
	}
	if stock < 0 {
		return nil, &errs.ValidationError{Field: "stock", Reason: "must not be negative"}
	}

	// Creation has no resource id yet; a single key still stops a
	// double submit of the same form.
	release, err := c.acquire("catalog/new")
	if err != nil {
		return nil, err
	}
	defer release()

	product, err := c.api.CreateProduct(ctx, client.CreateProductRequest{Name: name, Price: price, Stock: stock})
	if err != nil {
		return nil, err
	}
	if err := c.caches.AfterMutation(ctx, store.ProductCreated); err != nil {
		return product, fmt.Errorf("product created, refreshing caches: %w", err)
	}
	return product, nil
}

// acquire marks a resource as having a mutation in flight, or reports
// errs.ErrBusy if one already is. Locks are per resource: an in-flight
// purchase of product A never blocks a purchase of product B.
func (c *Checkout) acquire(key string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return nil, errs.ErrBusy
	}
	c.inflight[key] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}, nil
}
