package store

import (
	"context"
	"errors"
	"testing"

	"github.com/naveenspark/shopterm/pkg/domain"
)

type fakeFetchAPI struct {
	users    []domain.User
	products []domain.Product
	orders   []domain.Order

	userCalls    int
	productCalls int
	orderCalls   int

	ordersErr error
}

func (f *fakeFetchAPI) ListUsers(context.Context) ([]domain.User, error) {
	f.userCalls++
	return f.users, nil
}

func (f *fakeFetchAPI) ListProducts(context.Context) ([]domain.Product, error) {
	f.productCalls++
	return f.products, nil
}

func (f *fakeFetchAPI) ListOrders(context.Context) ([]domain.Order, error) {
	f.orderCalls++
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	return f.orders, nil
}

func sessionWith(role domain.Role) *domain.Session {
	return &domain.Session{AccessToken: "tok", User: domain.User{ID: "me", Role: role}}
}

func TestSessionStartLoadsByRole(t *testing.T) {
	tests := []struct {
		role       domain.Role
		wantUsers  int
		wantOrders int
	}{
		{domain.RoleAdmin, 1, 1},
		{domain.RoleCustomer, 0, 1},
		{domain.RoleSeller, 0, 0},
	}

	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			api := &fakeFetchAPI{
				users:  []domain.User{{ID: "u1"}},
				orders: []domain.Order{{ID: "o1"}},
			}
			s := New(api)

			if err := s.OnSessionChange(context.Background(), sessionWith(tc.role)); err != nil {
				t.Fatalf("OnSessionChange() error: %v", err)
			}
			if api.userCalls != tc.wantUsers {
				t.Errorf("user fetches = %d, want %d", api.userCalls, tc.wantUsers)
			}
			if api.orderCalls != tc.wantOrders {
				t.Errorf("order fetches = %d, want %d", api.orderCalls, tc.wantOrders)
			}
			// Session start never touches the public catalog.
			if api.productCalls != 0 {
				t.Errorf("product fetches = %d, want 0", api.productCalls)
			}
		})
	}
}

func TestLogoutClearsWithoutFetching(t *testing.T) {
	api := &fakeFetchAPI{
		users:    []domain.User{{ID: "u1"}},
		products: []domain.Product{{ID: "p1"}},
		orders:   []domain.Order{{ID: "o1"}},
	}
	s := New(api)
	if err := s.OnSessionChange(context.Background(), sessionWith(domain.RoleAdmin)); err != nil {
		t.Fatal(err)
	}
	if err := s.RefreshProducts(context.Background()); err != nil {
		t.Fatal(err)
	}
	calls := api.userCalls + api.orderCalls + api.productCalls

	if err := s.OnSessionChange(context.Background(), nil); err != nil {
		t.Fatalf("OnSessionChange(nil) error: %v", err)
	}

	if len(s.Users()) != 0 || len(s.Orders()) != 0 {
		t.Error("users/orders not cleared on logout")
	}
	// The public catalog survives logout.
	if len(s.Products()) != 1 {
		t.Error("products cleared on logout, want untouched")
	}
	if got := api.userCalls + api.orderCalls + api.productCalls; got != calls {
		t.Errorf("logout performed %d extra fetches, want 0", got-calls)
	}
}

func TestAfterMutation(t *testing.T) {
	tests := []struct {
		name         string
		mutation     Mutation
		wantProducts int
		wantOrders   int
	}{
		{"product created reloads catalog", ProductCreated, 1, 0},
		{"order placed reloads catalog and orders", OrderPlaced, 1, 1},
		{"order cancelled reloads catalog and orders", OrderCancelled, 1, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeFetchAPI{}
			s := New(api)

			if err := s.AfterMutation(context.Background(), tc.mutation); err != nil {
				t.Fatalf("AfterMutation() error: %v", err)
			}
			if api.productCalls != tc.wantProducts {
				t.Errorf("product fetches = %d, want %d", api.productCalls, tc.wantProducts)
			}
			if api.orderCalls != tc.wantOrders {
				t.Errorf("order fetches = %d, want %d", api.orderCalls, tc.wantOrders)
			}
			if api.userCalls != 0 {
				t.Errorf("user fetches = %d, want 0", api.userCalls)
			}
		})
	}
}

func TestRefreshReplacesWholesale(t *testing.T) {
	api := &fakeFetchAPI{orders: []domain.Order{{ID: "o1"}, {ID: "o2"}}}
	s := New(api)
	if err := s.RefreshOrders(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The next load returns a disjoint set; nothing from the old cache
	// may survive.
	api.orders = []domain.Order{{ID: "o3"}}
	if err := s.RefreshOrders(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := s.Orders()
	if len(got) != 1 || got[0].ID != "o3" {
		t.Errorf("orders = %+v, want exactly [o3]", got)
	}
}

func TestFailedRefreshLeavesCacheUntouched(t *testing.T) {
	api := &fakeFetchAPI{orders: []domain.Order{{ID: "o1"}}}
	s := New(api)
	if err := s.RefreshOrders(context.Background()); err != nil {
		t.Fatal(err)
	}

	api.ordersErr = errors.New("gateway down")
	if err := s.RefreshOrders(context.Background()); err == nil {
		t.Fatal("RefreshOrders() = nil, want error")
	}
	if got := s.Orders(); len(got) != 1 || got[0].ID != "o1" {
		t.Errorf("orders = %+v, want the pre-failure cache", got)
	}
}

func TestOrderByID(t *testing.T) {
	api := &fakeFetchAPI{orders: []domain.Order{{ID: "o1", Status: domain.OrderCreated}}}
	s := New(api)
	if err := s.RefreshOrders(context.Background()); err != nil {
		t.Fatal(err)
	}

	if o, ok := s.OrderByID("o1"); !ok || o.Status != domain.OrderCreated {
		t.Errorf("OrderByID(o1) = %+v, %v", o, ok)
	}
	if _, ok := s.OrderByID("nope"); ok {
		t.Error("OrderByID(nope) found a ghost order")
	}
}
