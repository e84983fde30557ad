// Package catalog provides the read-mostly product catalog consulted by cart
// and order pricing. Product data is loaded from an external feed at startup
// and held in memory; lookups never touch the network.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Carts and orders copy these fields into
// snapshots at write time, so later catalog changes never alter existing
// carts or orders.
type Product struct {
	ID       string
	Name     string
	Image    string
	Price    decimal.Decimal
	Category string
}

// Lookup resolves product IDs against the catalog.
type Lookup interface {
	Resolve(id string) (Product, bool)
}

// NotFoundError indicates a requested product does not exist in the catalog.
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}
