package promo

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// ParseTable decodes a promotions document of the form
//
//	{"coupons": [{"code": "...", "discount": 20, "description": "..."}],
//	 "shipping": [{"id": "...", "method": "...", "fee": 100}]}
//
// Discounts and fees are accepted as JSON numbers or numeric strings.
func ParseTable(data []byte) (*Table, error) {
	d := jx.DecodeBytes(data)

	var (
		coupons  []Coupon
		shipping []ShippingOption
	)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "coupons":
			return d.Arr(func(d *jx.Decoder) error {
				c, err := decodeCoupon(d)
				if err != nil {
					return err
				}
				coupons = append(coupons, c)
				return nil
			})
		case "shipping":
			return d.Arr(func(d *jx.Decoder) error {
				s, err := decodeShipping(d)
				if err != nil {
					return err
				}
				shipping = append(shipping, s)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode promotions")
	}

	return NewTable(coupons, shipping), nil
}

func decodeCoupon(d *jx.Decoder) (Coupon, error) {
	var c Coupon
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "code":
			v, err := d.Str()
			c.Code = v
			return err
		case "discount":
			return decodeAmount(d, &c.Discount)
		case "description":
			v, err := d.Str()
			c.Description = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return Coupon{}, err
	}
	if c.Code == "" {
		return Coupon{}, errors.New("coupon entry missing code")
	}
	return c, nil
}

func decodeShipping(d *jx.Decoder) (ShippingOption, error) {
	var s ShippingOption
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			v, err := d.Str()
			s.ID = v
			return err
		case "method":
			v, err := d.Str()
			s.Method = v
			return err
		case "fee":
			return decodeAmount(d, &s.Fee)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return ShippingOption{}, err
	}
	if s.ID == "" {
		return ShippingOption{}, errors.New("shipping entry missing id")
	}
	return s, nil
}

func decodeAmount(d *jx.Decoder, dst *decimal.Decimal) error {
	raw, err := d.Raw()
	if err != nil {
		return err
	}
	return dst.UnmarshalJSON(raw)
}
