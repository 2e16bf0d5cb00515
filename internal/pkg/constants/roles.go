package constants

// Roles resolved from the caller's profile on every guarded request.
const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleSuspended = "suspended"
)

// Seller types stored on profiles.seller_type.
const (
	SellerIndividual = "individual"
	SellerDealer     = "dealer"
)

var SellerTypes = []string{SellerIndividual, SellerDealer}

// IsValidSellerType returns true if t is one of the allowed seller types.
func IsValidSellerType(t string) bool {
	return contains(SellerTypes, t)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
