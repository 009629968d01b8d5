package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// Discount types understood by ParseCoupons.
const (
	DiscountPercentage   = "percent"
	DiscountFixedAmount  = "fixed"
	DiscountFreeShipping = "free_shipping"
)

// CouponEffect computes the discount a coupon grants for a subtotal.
// The returned value replaces any explicit discount supplied by the caller.
type CouponEffect func(subtotal int64) int64

// CouponBook resolves coupon codes to their effect.
type CouponBook interface {
	Lookup(code string) (CouponEffect, bool)
}

// Coupons is a static, case-sensitive CouponBook.
type Coupons map[string]CouponEffect

func (c Coupons) Lookup(code string) (CouponEffect, bool) {
	effect, ok := c[code]
	return effect, ok
}

// PercentOff grants pct percent of the subtotal, rounded down to the cent.
func PercentOff(pct int64) CouponEffect {
	return func(subtotal int64) int64 {
		return subtotal * pct / 100
	}
}

// AmountOff grants a fixed amount in cents.
func AmountOff(amount int64) CouponEffect {
	return func(int64) int64 {
		return amount
	}
}

// FreeShippingIntent records a free-shipping coupon. It resets the discount to
// zero and leaves the shipping cost untouched; callers decide whether to waive it.
func FreeShippingIntent() CouponEffect {
	return func(int64) int64 {
		return 0
	}
}

// DefaultCoupons returns the coupons the store ships with.
func DefaultCoupons() Coupons {
	return Coupons{
		"DESCUENTO10": PercentOff(10),
		"ENVIOGRATIS": FreeShippingIntent(),
	}
}

// ParseCoupons parses definitions like "DESCUENTO10=percent:10,ENVIOGRATIS=free_shipping".
func ParseCoupons(raw string) (Coupons, error) {
	coupons := Coupons{}
	for _, def := range strings.Split(raw, ",") {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}

		code, rule, ok := strings.Cut(def, "=")
		if !ok || strings.TrimSpace(code) == "" {
			return nil, fmt.Errorf("invalid coupon definition %q", def)
		}
		code = strings.TrimSpace(code)

		kind, value, _ := strings.Cut(strings.TrimSpace(rule), ":")
		switch kind {
		case DiscountFreeShipping:
			coupons[code] = FreeShippingIntent()
		case DiscountPercentage, DiscountFixedAmount:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid value for coupon %s: %q", code, value)
			}
			if kind == DiscountPercentage {
				if n > 100 {
					return nil, fmt.Errorf("coupon %s exceeds 100 percent", code)
				}
				coupons[code] = PercentOff(n)
			} else {
				coupons[code] = AmountOff(n)
			}
		default:
			return nil, fmt.Errorf("unknown discount type %q for coupon %s", kind, code)
		}
	}
	return coupons, nil
}

// Input is everything the evaluator needs. Lines carry per-line subtotals.
type Input struct {
	LineSubtotals []int64
	ShippingCost  int64
	Discount      int64
	CouponCode    string
}

// Breakdown is the evaluator's result.
type Breakdown struct {
	Subtotal      int64  `json:"subtotal"`
	ShippingCost  int64  `json:"shippingCost"`
	Discount      int64  `json:"discount"`
	Total         int64  `json:"total"`
	CouponCode    string `json:"couponCode,omitempty"`
	CouponApplied bool   `json:"couponApplied"`
}

// Evaluator computes order and cart totals. It has no side effects.
type Evaluator struct {
	coupons CouponBook
}

func NewEvaluator(coupons CouponBook) *Evaluator {
	if coupons == nil {
		coupons = Coupons{}
	}
	return &Evaluator{coupons: coupons}
}

// Calculate returns subtotal, shipping, discount and total, where
// total = max(0, subtotal + shipping - discount).
func (e *Evaluator) Calculate(in Input) Breakdown {
	var subtotal int64
	for _, line := range in.LineSubtotals {
		subtotal += line
	}

	b := Breakdown{
		Subtotal:     subtotal,
		ShippingCost: in.ShippingCost,
		Discount:     in.Discount,
		CouponCode:   in.CouponCode,
	}

	if in.CouponCode != "" {
		if effect, ok := e.coupons.Lookup(in.CouponCode); ok {
			b.Discount = effect(subtotal)
			b.CouponApplied = true
		}
	}

	b.Total = subtotal + b.ShippingCost - b.Discount
	if b.Total < 0 {
		b.Total = 0
	}
	return b
}
