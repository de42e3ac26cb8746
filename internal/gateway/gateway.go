// Package gateway is an in-memory storefront gateway for local
// development and tests. It speaks the same wire contract the hosted
// gateway does: JWT bearer auth, snake_case user payloads, camelCase
// product and order payloads, Idempotency-Key replay on order
// creation, and {error, message} error bodies.
//
// State lives in process memory and is lost on exit.
package gateway

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/naveenspark/shopterm/pkg/domain"
)

var (
	errEmailTaken        = errors.New("email already registered")
	errBadCredentials    = errors.New("invalid email or password")
	errUnknownProduct    = errors.New("product not found")
	errUnknownOrder      = errors.New("order not found")
	errInsufficientStock = errors.New("insufficient stock")
	errNotCancellable    = errors.New("order is not in a cancellable state")
	errNotOwner          = errors.New("order belongs to another user")
)

// dummyHash keeps login timing uniform for unknown emails.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("shopterm-dev-dummy"), bcrypt.MinCost)

type account struct {
	user domain.User
	hash []byte
}

// Gateway holds all storefront state behind a single lock. The
// storefront is a dev fixture, not a throughput target.
type Gateway struct {
	log *zap.Logger

	mu       sync.Mutex
	accounts map[string]*account // keyed by email
	byID     map[string]*account
	products map[string]*domain.Product
	orders   map[string]*domain.Order

	// idempotency maps an Idempotency-Key to the order it created.
	idempotency map[string]string
}

func New(log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		log:         log,
		accounts:    make(map[string]*account),
		byID:        make(map[string]*account),
		products:    make(map[string]*domain.Product),
		orders:      make(map[string]*domain.Order),
		idempotency: make(map[string]string),
	}
}

// SeedUser describes an account created at startup. Role may be any
// role, including ADMIN, which the register endpoint refuses.
type SeedUser struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Seed provisions accounts and products directly, bypassing the wire
// surface. Intended for cmd startup and tests.
func (g *Gateway) Seed(users []SeedUser, products []domain.Product) error {
	for _, u := range users {
		if _, err := g.register(u.Name, u.Email, u.Password, u.Role, true); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range products {
		p := p
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		g.products[p.ID] = &p
	}
	return nil
}

func (g *Gateway) register(name, email, password string, role domain.Role, allowAdmin bool) (domain.User, error) {
	if !allowAdmin {
		ok := false
		for _, r := range domain.RegisterRoles {
			if r == role {
				ok = true
			}
		}
		if !ok {
			return domain.User{}, fmt.Errorf("role %s cannot self-register", role)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.accounts[email]; exists {
		return domain.User{}, errEmailTaken
	}
	acc := &account{
		user: domain.User{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			Role:      role,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		},
		hash: hash,
	}
	g.accounts[email] = acc
	g.byID[acc.user.ID] = acc
	g.log.Info("account registered", zap.String("email", email), zap.String("role", string(role)))
	return acc.user, nil
}

func (g *Gateway) authenticate(email, password string) (domain.User, error) {
	g.mu.Lock()
	acc, ok := g.accounts[email]
	g.mu.Unlock()
	if !ok {
		// Burn a comparison anyway so unknown emails cost the same.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return domain.User{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return domain.User{}, errBadCredentials
	}
	return acc.user, nil
}

func (g *Gateway) userByID(id string) (domain.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	acc, ok := g.byID[id]
	if !ok {
		return domain.User{}, false
	}
	return acc.user, true
}

func (g *Gateway) listUsers() []domain.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.User, 0, len(g.byID))
	for _, acc := range g.byID {
		out = append(out, acc.user)
	}
	return out
}

func (g *Gateway) listProducts() []domain.Product {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Product, 0, len(g.products))
	for _, p := range g.products {
		out = append(out, *p)
	}
	return out
}

func (g *Gateway) createProduct(name string, price float64, stock int) domain.Product {
	p := &domain.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: time.Now().UTC(),
	}
	g.mu.Lock()
	g.products[p.ID] = p
	g.mu.Unlock()
	g.log.Info("product listed", zap.String("id", p.ID), zap.String("name", name))
	return *p
}

func (g *Gateway) listOrders(viewer domain.User) []domain.Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Order, 0, len(g.orders))
	for _, o := range g.orders {
		if viewer.Role != domain.RoleAdmin && o.UserID != viewer.ID {
			continue
		}
		out = append(out, *o)
	}
	return out
}

// createOrder places an order, or replays a previous placement when the
// idempotency key has been seen before. Stock is decremented exactly
// once per key.
func (g *Gateway) createOrder(buyer domain.User, productID string, quantity int, key string) (domain.Order, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if key != "" {
		if orderID, seen := g.idempotency[key]; seen {
			g.log.Info("order replayed", zap.String("order_id", orderID), zap.String("idempotency_key", key))
			return *g.orders[orderID], true, nil
		}
	}

	p, ok := g.products[productID]
	if !ok {
		return domain.Order{}, false, errUnknownProduct
	}
	if p.Stock < quantity {
		return domain.Order{}, false, errInsufficientStock
	}
	p.Stock -= quantity

	o := &domain.Order{
		ID:          uuid.NewString(),
		UserID:      buyer.ID,
		ProductID:   productID,
		Quantity:    quantity,
		UnitPrice:   p.Price,
		TotalAmount: p.Price * float64(quantity),
		Status:      domain.OrderCreated,
		CreatedAt:   time.Now().UTC(),
	}
	g.orders[o.ID] = o
	if key != "" {
		g.idempotency[key] = o.ID
	}
	g.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("user_id", buyer.ID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	return *o, false, nil
}

// cancelOrder moves a CREATED order to CANCELLED and restores stock.
// Only the owner or an ADMIN may cancel.
func (g *Gateway) cancelOrder(caller domain.User, orderID string) (domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	o, ok := g.orders[orderID]
	if !ok {
		return domain.Order{}, errUnknownOrder
	}
	if caller.Role != domain.RoleAdmin && o.UserID != caller.ID {
		return domain.Order{}, errNotOwner
	}
	if o.Status != domain.OrderCreated {
		return domain.Order{}, errNotCancellable
	}

	now := time.Now().UTC()
	o.Status = domain.OrderCancelled
	o.CancelledAt = &now
	if p, ok := g.products[o.ProductID]; ok {
		p.Stock += o.Quantity
	}
	g.log.Info("order cancelled", zap.String("order_id", orderID), zap.String("by", caller.ID))
	return *o, nil
}

// Fulfil drives the fulfilment transition the hosted gateway performs
// asynchronously: CREATED becomes CONFIRMED on success or FAILED with a
// reason otherwise. Exposed so dev setups and tests control the timing.
func (g *Gateway) Fulfil(orderID string, ok bool, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	o, found := g.orders[orderID]
	if !found {
		return errUnknownOrder
	}
	if o.Status != domain.OrderCreated {
		return errNotCancellable
	}
	if ok {
		o.Status = domain.OrderConfirmed
	} else {
		o.Status = domain.OrderFailed
		o.FailureReason = reason
		if p, found := g.products[o.ProductID]; found {
			p.Stock += o.Quantity
		}
	}
	g.log.Info("order fulfilled", zap.String("order_id", orderID), zap.String("status", string(o.Status)))
	return nil
}
