package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/naveenspark/shopterm/pkg/client"
	"github.com/naveenspark/shopterm/pkg/domain"
)

func newTestServer(t *testing.T) (*Gateway, *httptest.Server) {
	t.Helper()
	g := New(nil)
	err := g.Seed(
		[]SeedUser{
			{Name: "Cara", Email: "cara@example.com", Password: "customer-pw", Role: domain.RoleCustomer},
			{Name: "Sven", Email: "sven@example.com", Password: "seller-pw", Role: domain.RoleSeller},
			{Name: "Ada", Email: "ada@example.com", Password: "admin-pw", Role: domain.RoleAdmin},
		},
		[]domain.Product{
			{ID: "prod-1", Name: "Keyboard", Price: 49.5, Stock: 10},
		},
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := DefaultConfig([]byte("test-secret"))
	srv := httptest.NewServer(g.Handler(cfg))
	t.Cleanup(srv.Close)
	return g, srv
}

func loginAs(t *testing.T, srv *httptest.Server, email, password string) *client.Client {
	t.Helper()
	c := client.New(srv.URL, "")
	res, err := c.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	c.SetToken(res.AccessToken)
	return c
}

func TestRegisterAndLogin(t *testing.T) {
	_, srv := newTestServer(t)
	c := client.New(srv.URL, "")

	user, err := c.Register(context.Background(), client.RegisterRequest{
		Name:     "Nadia",
		Email:    "nadia@example.com",
		Password: "long-enough-pw",
		Role:     domain.RoleSeller,
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if user.Role != domain.RoleSeller || !user.IsActive {
		t.Errorf("registered user = %+v", user)
	}

	res, err := c.Login(context.Background(), "nadia@example.com", "long-enough-pw")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if res.TokenType != "Bearer" || res.AccessToken == "" {
		t.Errorf("login response = %+v", res)
	}
	if res.ExpiresAt <= time.Now().Unix() {
		t.Errorf("expires_at %d is not in the future", res.ExpiresAt)
	}
}

func TestRegisterRejectsAdminAndDuplicates(t *testing.T) {
	_, srv := newTestServer(t)
	c := client.New(srv.URL, "")

	_, err := c.Register(context.Background(), client.RegisterRequest{
		Name: "Eve", Email: "eve@example.com", Password: "long-enough-pw", Role: domain.RoleAdmin,
	})
	if !client.IsStatus(err, http.StatusBadRequest) {
		t.Errorf("admin self-register error = %v, want 400", err)
	}

	_, err = c.Register(context.Background(), client.RegisterRequest{
		Name: "Cara Again", Email: "cara@example.com", Password: "long-enough-pw", Role: domain.RoleCustomer,
	})
	if !client.IsStatus(err, http.StatusConflict) {
		t.Errorf("duplicate email error = %v, want 409", err)
	}
}

func TestLoginBadPassword(t *testing.T) {
	_, srv := newTestServer(t)
	c := client.New(srv.URL, "")

	_, err := c.Login(context.Background(), "cara@example.com", "wrong")
	if !client.IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("error = %v, want 401", err)
	}
}

func TestLoginRateLimit(t *testing.T) {
	g, _ := newTestServer(t)
	cfg := DefaultConfig([]byte("test-secret"))
	cfg.LoginRate = rate.Limit(0)
	cfg.LoginBurst = 2
	srv := httptest.NewServer(g.Handler(cfg))
	defer srv.Close()

	c := client.New(srv.URL, "")
	for i := 0; i < 2; i++ {
		if _, err := c.Login(context.Background(), "cara@example.com", "wrong"); !client.IsStatus(err, http.StatusUnauthorized) {
			t.Fatalf("attempt %d error = %v, want 401", i, err)
		}
	}
	if _, err := c.Login(context.Background(), "cara@example.com", "customer-pw"); !client.IsStatus(err, http.StatusTooManyRequests) {
		t.Errorf("error = %v, want 429 once the burst is spent", err)
	}
}

func TestProductRoles(t *testing.T) {
	_, srv := newTestServer(t)

	seller := loginAs(t, srv, "sven@example.com", "seller-pw")
	created, err := seller.CreateProduct(context.Background(), client.CreateProductRequest{
		Name: "Mouse", Price: 19.0, Stock: 3,
	})
	if err != nil {
		t.Fatalf("seller CreateProduct() error: %v", err)
	}
	if created.ID == "" || created.Stock != 3 {
		t.Errorf("created product = %+v", created)
	}

	customer := loginAs(t, srv, "cara@example.com", "customer-pw")
	if _, err := customer.CreateProduct(context.Background(), client.CreateProductRequest{
		Name: "Nope", Price: 1, Stock: 1,
	}); !client.IsStatus(err, http.StatusForbidden) {
		t.Errorf("customer CreateProduct() error = %v, want 403", err)
	}

	// The catalog is public.
	anon := client.New(srv.URL, "")
	products, err := anon.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("anonymous ListProducts() error: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("catalog size = %d, want 2", len(products))
	}
}

func TestUserDirectoryAdminOnly(t *testing.T) {
	_, srv := newTestServer(t)

	admin := loginAs(t, srv, "ada@example.com", "admin-pw")
	users, err := admin.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("admin ListUsers() error: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("directory size = %d, want 3", len(users))
	}

	customer := loginAs(t, srv, "cara@example.com", "customer-pw")
	if _, err := customer.ListUsers(context.Background()); !client.IsStatus(err, http.StatusForbidden) {
		t.Errorf("customer ListUsers() error = %v, want 403", err)
	}
}

func TestCreateOrderDecrementsStockOnce(t *testing.T) {
	_, srv := newTestServer(t)
	customer := loginAs(t, srv, "cara@example.com", "customer-pw")

	key := uuid.NewString()
	first, err := customer.CreateOrder(context.Background(), "prod-1", 4, key)
	if err != nil {
		t.Fatalf("CreateOrder() error: %v", err)
	}
	if first.IdempotentReplay || first.Order.Status != domain.OrderCreated {
		t.Errorf("first response = %+v", first)
	}
	if first.Order.TotalAmount != 49.5*4 {
		t.Errorf("total = %v, want %v", first.Order.TotalAmount, 49.5*4)
	}

	// Same key replays the original order; stock moves only once.
	second, err := customer.CreateOrder(context.Background(), "prod-1", 4, key)
	if err != nil {
		t.Fatalf("replayed CreateOrder() error: %v", err)
	}
	if !second.IdempotentReplay || second.Order.ID != first.Order.ID {
		t.Errorf("replay = %+v, want order %s flagged as replay", second, first.Order.ID)
	}

	products, err := customer.ListProducts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := products[0].Stock; got != 6 {
		t.Errorf("stock = %d, want 6 after one decrement", got)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	_, srv := newTestServer(t)
	customer := loginAs(t, srv, "cara@example.com", "customer-pw")

	if _, err := customer.CreateOrder(context.Background(), "prod-1", 999, uuid.NewString()); !client.IsStatus(err, http.StatusConflict) {
		t.Errorf("error = %v, want 409", err)
	}
}

func TestCancelOrder(t *testing.T) {
	_, srv := newTestServer(t)
	customer := loginAs(t, srv, "cara@example.com", "customer-pw")

	placed, err := customer.CreateOrder(context.Background(), "prod-1", 2, uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := customer.CancelOrder(context.Background(), placed.Order.ID)
	if err != nil {
		t.Fatalf("CancelOrder() error: %v", err)
	}
	if cancelled.Status != domain.OrderCancelled || cancelled.CancelledAt == nil {
		t.Errorf("cancelled order = %+v", cancelled)
	}

	// Stock comes back.
	products, _ := customer.ListProducts(context.Background())
	if products[0].Stock != 10 {
		t.Errorf("stock = %d, want 10 after cancellation", products[0].Stock)
	}

	// A second cancel hits a terminal order.
	if _, err := customer.CancelOrder(context.Background(), placed.Order.ID); !client.IsStatus(err, http.StatusConflict) {
		t.Errorf("re-cancel error = %v, want 409", err)
	}
}

func TestCancelOrderOwnership(t *testing.T) {
	_, srv := newTestServer(t)
	customer := loginAs(t, srv, "cara@example.com", "customer-pw")

	placed, err := customer.CreateOrder(context.Background(), "prod-1", 1, uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}

	// Another customer cannot cancel it.
	anon := client.New(srv.URL, "")
	if _, err := anon.Register(context.Background(), client.RegisterRequest{
		Name: "Omar", Email: "omar@example.com", Password: "long-enough-pw",
	}); err != nil {
		t.Fatal(err)
	}
	other := loginAs(t, srv, "omar@example.com", "long-enough-pw")
	if _, err := other.CancelOrder(context.Background(), placed.Order.ID); !client.IsStatus(err, http.StatusForbidden) {
		t.Errorf("stranger cancel error = %v, want 403", err)
	}

	// An admin can.
	admin := loginAs(t, srv, "ada@example.com", "admin-pw")
	if _, err := admin.CancelOrder(context.Background(), placed.Order.ID); err != nil {
		t.Errorf("admin cancel error = %v", err)
	}
}

func TestOrderVisibility(t *testing.T) {
	_, srv := newTestServer(t)
	customer := loginAs(t, srv, "cara@example.com", "customer-pw")

	if _, err := customer.CreateOrder(context.Background(), "prod-1", 1, uuid.NewString()); err != nil {
		t.Fatal(err)
	}

	mine, err := customer.ListOrders(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 {
		t.Errorf("customer sees %d orders, want 1", len(mine))
	}

	admin := loginAs(t, srv, "ada@example.com", "admin-pw")
	all, err := admin.ListOrders(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("admin sees %d orders, want 1", len(all))
	}
}

func TestFulfil(t *testing.T) {
	g, srv := newTestServer(t)
	customer := loginAs(t, srv, "cara@example.com", "customer-pw")

	placed, err := customer.CreateOrder(context.Background(), "prod-1", 3, uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Fulfil(placed.Order.ID, false, "payment declined"); err != nil {
		t.Fatalf("Fulfil() error: %v", err)
	}

	orders, err := customer.ListOrders(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if orders[0].Status != domain.OrderFailed || orders[0].FailureReason != "payment declined" {
		t.Errorf("order = %+v, want FAILED with reason", orders[0])
	}

	// Failed fulfilment returns the reserved stock.
	products, _ := customer.ListProducts(context.Background())
	if products[0].Stock != 10 {
		t.Errorf("stock = %d, want 10 after failed fulfilment", products[0].Stock)
	}

	// A terminal order cannot be fulfilled again, nor cancelled.
	if err := g.Fulfil(placed.Order.ID, true, ""); err == nil {
		t.Error("re-fulfilling a FAILED order succeeded")
	}
	if _, err := customer.CancelOrder(context.Background(), placed.Order.ID); !client.IsStatus(err, http.StatusConflict) {
		t.Errorf("cancel of FAILED order error = %v, want 409", err)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, srv := newTestServer(t)
	anon := client.New(srv.URL, "")

	if _, err := anon.ListOrders(context.Background()); !client.IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("ListOrders error = %v, want 401", err)
	}

	bogus := client.New(srv.URL, "not-a-jwt")
	if _, err := bogus.ListOrders(context.Background()); !client.IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("bogus token error = %v, want 401", err)
	}
}
