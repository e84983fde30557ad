// Package promo holds the static promotion data: coupon discounts and
// shipping options. The table is fixed at deploy time; there is no dynamic
// reload.
package promo

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUnknownShipping is returned when a shipping option ID does not resolve.
// Unlike coupons, shipping is required input: orders cannot be priced
// without a valid shipping option.
var ErrUnknownShipping = errors.New("unknown shipping option")

// Coupon is a flat-amount discount identified by its code.
type Coupon struct {
	Code        string
	Discount    decimal.Decimal
	Description string
}

// ShippingOption pairs a delivery method label with its fee.
type ShippingOption struct {
	ID     string
	Method string
	Fee    decimal.Decimal
}

// Lookup resolves coupon and shipping IDs and exposes ordered dumps for the
// listing endpoints. A coupon miss degrades to "no discount applied"; a
// shipping miss is a hard validation error.
type Lookup interface {
	ResolveCoupon(id string) (Coupon, bool)
	ResolveShipping(id string) (ShippingOption, error)
	Coupons() []Coupon
	ShippingOptions() []ShippingOption
}

// Table is an immutable in-memory promotion lookup. Building it is the only
// mutation; concurrent reads need no synchronization.
type Table struct {
	coupons       map[string]Coupon
	couponOrder   []string
	shipping      map[string]ShippingOption
	shippingOrder []string
}

var _ Lookup = (*Table)(nil)

// NewTable builds a Table from the given coupons and shipping options,
// preserving their order for the dump accessors.
func NewTable(coupons []Coupon, shipping []ShippingOption) *Table {
	t := &Table{
		coupons:  make(map[string]Coupon, len(coupons)),
		shipping: make(map[string]ShippingOption, len(shipping)),
	}
	for _, c := range coupons {
		if _, dup := t.coupons[c.Code]; dup {
			continue
		}
		t.coupons[c.Code] = c
		t.couponOrder = append(t.couponOrder, c.Code)
	}
	for _, s := range shipping {
		if _, dup := t.shipping[s.ID]; dup {
			continue
		}
		t.shipping[s.ID] = s
		t.shippingOrder = append(t.shippingOrder, s.ID)
	}
	return t
}

// ResolveCoupon returns the coupon for the given code.
func (t *Table) ResolveCoupon(id string) (Coupon, bool) {
	c, ok := t.coupons[id]
	return c, ok
}

// ResolveShipping returns the shipping option for the given ID, or
// ErrUnknownShipping.
func (t *Table) ResolveShipping(id string) (ShippingOption, error) {
	s, ok := t.shipping[id]
	if !ok {
		return ShippingOption{}, ErrUnknownShipping
	}
	return s, nil
}

// Coupons returns all coupons in table order.
func (t *Table) Coupons() []Coupon {
	out := make([]Coupon, 0, len(t.couponOrder))
	for _, code := range t.couponOrder {
		out = append(out, t.coupons[code])
	}
	return out
}

// ShippingOptions returns all shipping options in table order.
func (t *Table) ShippingOptions() []ShippingOption {
	out := make([]ShippingOption, 0, len(t.shippingOrder))
	for _, id := range t.shippingOrder {
		out = append(out, t.shipping[id])
	}
	return out
}
