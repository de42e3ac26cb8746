// Package authz holds the stateless authorization predicates. Every
// decision is a pure function of (session, action); mutating operations
// call the relevant predicate before any network traffic. This is a
// client-side courtesy check, not a trust boundary — the gateway
// re-enforces every rule server-side.
package authz

import "github.com/naveenspark/shopterm/pkg/domain"

// CanCreateProduct reports whether the session may list a new product.
func CanCreateProduct(s *domain.Session) bool {
	return hasRole(s, domain.RoleSeller, domain.RoleAdmin)
}

// CanPurchase reports whether the session may place an order. Sellers
// are disallowed from buying; that is a rule, not a UI omission.
func CanPurchase(s *domain.Session) bool {
	return hasRole(s, domain.RoleCustomer, domain.RoleAdmin)
}

// CanViewUserDirectory reports whether the session may list all users.
func CanViewUserDirectory(s *domain.Session) bool {
	return hasRole(s, domain.RoleAdmin)
}

// CanViewOrders reports whether the session has an order view at all.
func CanViewOrders(s *domain.Session) bool {
	return hasRole(s, domain.RoleCustomer, domain.RoleAdmin)
}

// CanCancelOrder reports whether the session may cancel the given order:
// the order must still be CREATED, and the caller must be an admin or
// the order's owner. Terminal statuses are never cancellable, whoever asks.
func CanCancelOrder(s *domain.Session, o domain.Order) bool {
	if !s.Valid() || o.Status != domain.OrderCreated {
		return false
	}
	return s.User.Role == domain.RoleAdmin || o.UserID == s.User.ID
}

func hasRole(s *domain.Session, roles ...domain.Role) bool {
	if !s.Valid() {
		return false
	}
	for _, r := range roles {
		if s.User.Role == r {
			return true
		}
	}
	return false
}
