package handler

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kvateru/storefront/internal/domain/cart"
	"github.com/kvateru/storefront/internal/domain/order"
	"github.com/kvateru/storefront/internal/domain/promo"
)

// Monetary amounts are rendered as decimal strings (shopspring default) to
// keep cents exact across clients.

type lineResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
}

type couponResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

type reviewResponse struct {
	Comment string   `json:"comment"`
	Rating  int      `json:"rating"`
	Images  []string `json:"images"`
}

type orderResponse struct {
	ID             string          `json:"id"`
	Items          []lineResponse  `json:"items"`
	ShippingMethod string          `json:"shippingMethod"`
	ShippingFee    decimal.Decimal `json:"shippingFee"`
	Coupon         *couponResponse `json:"coupon,omitempty"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      time.Time       `json:"createdAt"`
	Review         *reviewResponse `json:"review,omitempty"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type meResponse struct {
	User   userResponse    `json:"user"`
	Cart   []lineResponse  `json:"cart"`
	Orders []orderResponse `json:"orders"`
}

type shippingOptionResponse struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Fee    decimal.Decimal `json:"fee"`
}

type promoCouponResponse struct {
	Code        string          `json:"code"`
	Discount    decimal.Decimal `json:"discount"`
	Description string          `json:"description"`
}

func cartLineToResponse(l cart.Line) lineResponse {
	return lineResponse{
		ProductID: l.ProductID,
		Name:      l.Name,
		Image:     l.Image,
		Price:     l.Price,
		Category:  l.Category,
		Quantity:  l.Quantity,
	}
}

func cartToResponse(lines []cart.Line) []lineResponse {
	out := make([]lineResponse, len(lines))
	for i, l := range lines {
		out[i] = cartLineToResponse(l)
	}
	return out
}

// orderToResponse maps an order, exposing review images as derived URLs
// instead of raw bytes.
func (h *Handler) orderToResponse(o order.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		Items:          make([]lineResponse, len(o.Lines)),
		ShippingMethod: o.ShippingMethod,
		ShippingFee:    o.ShippingFee,
		Total:          o.Total,
		CreatedAt:      o.CreatedAt,
	}
	for i, l := range o.Lines {
		resp.Items[i] = lineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.Price,
			Category:  l.Category,
			Quantity:  l.Quantity,
		}
	}
	if o.Coupon != nil {
		resp.Coupon = &couponResponse{Code: o.Coupon.Code, Discount: o.Coupon.Discount}
	}
	if o.Review != nil {
		r := &reviewResponse{
			Comment: o.Review.Comment,
			Rating:  o.Review.Rating,
			Images:  make([]string, o.Review.ImageCount),
		}
		for i := range r.Images {
			r.Images[i] = h.reviewImageURL(o.ID, i)
		}
		resp.Review = r
	}
	return resp
}

func (h *Handler) reviewImageURL(orderID string, index int) string {
	return fmt.Sprintf("%s/order/%s/review/image/%d", h.basePath, orderID, index)
}

func shippingToResponse(opts []promo.ShippingOption) []shippingOptionResponse {
	out := make([]shippingOptionResponse, len(opts))
	for i, s := range opts {
		out[i] = shippingOptionResponse{ID: s.ID, Method: s.Method, Fee: s.Fee}
	}
	return out
}

func couponsToResponse(coupons []promo.Coupon) []promoCouponResponse {
	out := make([]promoCouponResponse, len(coupons))
	for i, c := range coupons {
		out[i] = promoCouponResponse{Code: c.Code, Discount: c.Discount, Description: c.Description}
	}
	return out
}
