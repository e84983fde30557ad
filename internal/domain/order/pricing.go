package order

import (
	"github.com/shopspring/decimal"

	"github.com/kvateru/storefront/internal/domain/catalog"
	"github.com/kvateru/storefront/internal/domain/promo"
)

// Quote is the transient result of pricing a set of items. It is consumed
// immediately by order creation or edit and never persisted as-is.
type Quote struct {
	Lines          []Line
	ShippingMethod string
	ShippingFee    decimal.Decimal
	Coupon         *CouponSnapshot
	Total          decimal.Decimal
}

// Quoter prices order requests against the catalog and promotion lookups.
// The same algorithm serves order creation and order edit: an edit re-prices
// from scratch rather than diffing against the stored order.
type Quoter struct {
	catalog catalog.Lookup
	promos  promo.Lookup
}

// NewQuoter creates a Quoter with the given lookups.
func NewQuoter(catalog catalog.Lookup, promos promo.Lookup) *Quoter {
	return &Quoter{
		catalog: catalog,
		promos:  promos,
	}
}

// Quote resolves and prices the requested items.
//
// The shipping ID must resolve; an unknown or empty ID fails the whole
// request with promo.ErrUnknownShipping. Every product must resolve against
// the catalog; the first miss fails the request. A coupon ID that does not
// resolve is not an error: it degrades to "no discount applied". The
// discount is subtracted after the shipping fee is added and may drive the
// total negative; totals are intentionally not floored at zero.
func (q *Quoter) Quote(items []Item, couponID, shippingID string) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	shipping, err := q.promos.ResolveShipping(shippingID)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, len(items))
	lineTotal := decimal.Zero
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		p, ok := q.catalog.Resolve(item.ProductID)
		if !ok {
			return nil, &catalog.NotFoundError{ProductID: item.ProductID}
		}
		lines[i] = Line{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Category:  p.Category,
			Quantity:  item.Quantity,
		}
		lineTotal = lineTotal.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	total := lineTotal.Add(shipping.Fee)

	var snapshot *CouponSnapshot
	if couponID != "" {
		if c, ok := q.promos.ResolveCoupon(couponID); ok {
			snapshot = &CouponSnapshot{Code: c.Code, Discount: c.Discount}
			total = total.Sub(c.Discount)
		}
	}

	return &Quote{
		Lines:          lines,
		ShippingMethod: shipping.Method,
		ShippingFee:    shipping.Fee,
		Coupon:         snapshot,
		Total:          total,
	}, nil
}
