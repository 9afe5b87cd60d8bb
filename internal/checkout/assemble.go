package checkout

import (
	"strings"

	"storefront/internal/pricing"
)

// OrderItemRequest is one cart line in the creation payload.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// OrderRequest is the single creation payload assembled from the final form
// data, the recomputed totals and the applied coupon.
type OrderRequest struct {
	Items                 []OrderItemRequest `json:"items"`
	FirstName             string             `json:"firstName"`
	LastName              string             `json:"lastName"`
	Email                 string             `json:"email"`
	Phone                 string             `json:"phone"`
	Address               string             `json:"address"`
	City                  string             `json:"city"`
	PostalCode            string             `json:"postalCode,omitempty"`
	PaymentMethod         string             `json:"paymentMethod"`
	ShippingPaymentMethod string             `json:"shippingPaymentMethod,omitempty"`
	PaymentProofURL       string             `json:"paymentProofUrl,omitempty"`
	ShippingPrice         float64            `json:"shippingPrice"`
	PrepaidAmount         float64            `json:"prepaidAmount"`
	CODAmount             float64            `json:"codAmount"`
	Notes                 string             `json:"notes,omitempty"`
	CouponCode            string             `json:"couponCode,omitempty"`
	CouponDiscount        float64            `json:"couponDiscount"`
	CSRFToken             string             `json:"csrfToken"`
}

// BuildOrderRequest assembles the creation payload. PaymentMethod is passed
// through unmodified; ShippingPaymentMethod is included only for COD.
func BuildOrderRequest(items []pricing.CartItem, form FormData, totals pricing.Totals, coupon *pricing.Coupon, proofURL, csrfToken string) OrderRequest {
	reqItems := make([]OrderItemRequest, 0, len(items))
	for _, item := range items {
		reqItems = append(reqItems, OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.SelectedSize,
			Color:     item.SelectedColor,
		})
	}

	req := OrderRequest{
		Items:           reqItems,
		FirstName:       strings.TrimSpace(form.FirstName),
		LastName:        strings.TrimSpace(form.LastName),
		Email:           strings.TrimSpace(form.Email),
		Phone:           strings.TrimSpace(form.Phone),
		Address:         strings.TrimSpace(form.Address),
		City:            strings.TrimSpace(form.City),
		PostalCode:      strings.TrimSpace(form.PostalCode),
		PaymentMethod:   form.PaymentMethod,
		PaymentProofURL: proofURL,
		ShippingPrice:   totals.ShippingPrice,
		PrepaidAmount:   totals.PrepaidTotal,
		CODAmount:       totals.CODAmount,
		Notes:           strings.TrimSpace(form.Notes),
		CouponDiscount:  totals.CouponDiscount,
		CSRFToken:       csrfToken,
	}

	if form.PaymentMethod == "cod" {
		req.ShippingPaymentMethod = form.ShippingPaymentMethod
	}
	if coupon != nil {
		req.CouponCode = coupon.Code
	}

	return req
}
