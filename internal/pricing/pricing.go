package pricing

import (
	"math"
	"strconv"
	"strings"
)

// CartItem is a read-only snapshot of one cart line. SalePrice of nil means
// the item sells at its regular price.
type CartItem struct {
	ProductID     string
	Name          string
	NameAr        string
	Price         float64
	SalePrice     *float64
	Quantity      int
	SelectedSize  string
	SelectedColor string
	StockQuantity int
	VariantStock  int
}

// Coupon is an applied discount as returned by coupon validation.
// MaxDiscount of nil means a percentage coupon is uncapped.
type Coupon struct {
	Code           string
	DiscountType   string // "PERCENTAGE" or "FIXED"
	DiscountValue  float64
	MaxDiscount    *float64
	DiscountAmount float64
}

// Totals is the full derived price breakdown for a checkout.
type Totals struct {
	TotalPrice            float64
	CouponDiscount        float64
	SubtotalAfterDiscount float64
	ShippingPrice         float64
	PrepaidTotal          float64
	CODAmount             float64
}

// EffectiveUnitPrice returns the sale price when one is set and valid,
// otherwise the regular price. A sale price of zero or at/above the regular
// price is degenerate data (the admin endpoints reject that combination) and
// is ignored rather than charged, so a stale flag can never raise the price.
func EffectiveUnitPrice(item CartItem) float64 {
	if item.SalePrice != nil && *item.SalePrice > 0 && *item.SalePrice < item.Price {
		return *item.SalePrice
	}
	return item.Price
}

// CartTotal sums quantity times effective unit price over all lines.
func CartTotal(items []CartItem) float64 {
	total := 0.0
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		total += float64(item.Quantity) * EffectiveUnitPrice(item)
	}
	return total
}

// CouponDiscount computes the discount a coupon grants against the given
// total. Percentage coupons are capped by MaxDiscount when set; every
// discount is capped by the total itself. A nil coupon or zero total grants
// nothing.
func CouponDiscount(total float64, coupon *Coupon) float64 {
	if coupon == nil || total <= 0 {
		return 0
	}

	var discount float64
	switch coupon.DiscountType {
	case "PERCENTAGE":
		discount = total * coupon.DiscountValue / 100
		if coupon.MaxDiscount != nil && discount > *coupon.MaxDiscount {
			discount = *coupon.MaxDiscount
		}
	case "FIXED":
		discount = coupon.DiscountValue
	default:
		return 0
	}

	if discount < 0 {
		return 0
	}
	if discount > total {
		return total
	}
	return discount
}

// Compute derives the full totals breakdown. It is a pure function of its
// inputs and is meant to be re-run after every cart, coupon, or payment
// method change instead of caching a copy.
func Compute(items []CartItem, coupon *Coupon, shippingPrice float64, paymentMethod string) Totals {
	total := CartTotal(items)
	discount := CouponDiscount(total, coupon)

	subtotal := total - discount
	if subtotal < 0 {
		subtotal = 0
	}

	t := Totals{
		TotalPrice:            total,
		CouponDiscount:        discount,
		SubtotalAfterDiscount: subtotal,
		ShippingPrice:         shippingPrice,
	}

	if paymentMethod == "cod" {
		t.PrepaidTotal = shippingPrice
		t.CODAmount = subtotal
	} else {
		t.PrepaidTotal = subtotal + shippingPrice
		t.CODAmount = 0
	}

	return t
}

// FormatCurrency renders an amount with ASCII digits regardless of the
// display language, followed by the language's currency label. Invalid
// amounts render as zero.
func FormatCurrency(amount float64, lang string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}

	formatted := strconv.FormatFloat(amount, 'f', 2, 64)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")
	if formatted == "" || formatted == "-" {
		formatted = "0"
	}

	if lang == "ar" {
		return formatted + " ج.م"
	}
	return formatted + " EGP"
}
