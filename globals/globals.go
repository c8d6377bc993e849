package globals

// Persisted client-side keys. Absence of TokenKey is the canonical "logged out" signal.
const (
	TokenKey    = "token"
	RoleKey     = "role"
	SellerIDKey = "sellerId"
)

// SessionKeys is everything purged on logout or when the token goes bad.
var SessionKeys = []string{TokenKey, RoleKey, SellerIDKey}

// APIPrefix is the versioned path prefix of the marketplace REST API.
const APIPrefix = "/api/v1"

// MysteryBoxProductID is the sentinel product id shared by every bundled offer in a cart.
const MysteryBoxProductID = "mystery-box"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Context keys
type ContextKey string

const RoleCtxKey ContextKey = "role"
const UserIDKey ContextKey = "userId"
