package query

import (
	"strconv"
	"strings"
)

// Key identifies a cached read. Keys are hierarchical: invalidating a
// prefix drops every key under it.
type Key []string

func (k Key) String() string { return strings.Join(k, "/") }

// HasPrefix reports whether k starts with every segment of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Families. Single-record reads live under their family so one
// invalidation covers lists and details alike.
var (
	ProductsKey = Key{"products"}
	OrdersKey   = Key{"orders"}
)

func AllProductsKey() Key { return Key{"products", "all"} }

func ProductKey(id uint64) Key { return Key{"products", "id", strconv.FormatUint(id, 10)} }

func ProductsByCategoryKey(category string) Key { return Key{"products", "category", category} }

func ProductsBySellerKey(sellerID string) Key { return Key{"products", "seller", sellerID} }

func AllOrdersKey() Key { return Key{"orders", "all"} }

func OrderKey(id uint64) Key { return Key{"orders", "id", strconv.FormatUint(id, 10)} }

func OrdersByBuyerKey(email string) Key { return Key{"orders", "buyer", strings.ToLower(email)} }

func OrdersBySellerKey(sellerID string) Key { return Key{"orders", "seller", sellerID} }
