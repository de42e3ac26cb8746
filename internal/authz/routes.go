package authz

import "github.com/naveenspark/shopterm/pkg/domain"

// Route is a navigable destination with its capability requirement.
// A nil Roles list means any authenticated session may enter; Public
// additionally opens the route to unauthenticated visitors.
type Route struct {
	Name   string
	Public bool
	Roles  []domain.Role
}

// The static route table. Both tab rendering and redirect decisions go
// through CanAccessRoute over this table; no screen duplicates the rules.
var (
	RouteAuth    = Route{Name: "auth", Public: true}
	RouteCatalog = Route{Name: "catalog", Public: true}
	RouteOrders  = Route{Name: "orders", Roles: []domain.Role{domain.RoleCustomer, domain.RoleAdmin}}
	RouteUsers   = Route{Name: "users", Roles: []domain.Role{domain.RoleAdmin}}
)

// Routes lists every route in display order.
var Routes = []Route{RouteAuth, RouteCatalog, RouteOrders, RouteUsers}

// CanAccessRoute reports whether the session may enter the route. A
// denial signals "redirect to the default route"; it never panics or errors.
func CanAccessRoute(s *domain.Session, r Route) bool {
	if r.Public {
		return true
	}
	if !s.Valid() {
		return false
	}
	if len(r.Roles) == 0 {
		return true
	}
	return hasRole(s, r.Roles...)
}

// DefaultRoute is where a denied navigation lands: the catalog for an
// authenticated session, the auth screen otherwise.
func DefaultRoute(s *domain.Session) Route {
	if s.Valid() {
		return RouteCatalog
	}
	return RouteAuth
}
