package checkout

import (
	"context"
	"errors"

	"storefront/internal/pricing"
)

// ErrStockConflict marks an order rejection caused by insufficient stock.
// Callers route it to a "return to cart" prompt instead of a generic error.
var ErrStockConflict = errors.New("stock conflict")

// CartStore is the externally owned cart the wizard reads from. The wizard
// never mutates line items; it only clears the cart after a confirmed order.
type CartStore interface {
	Items() []pricing.CartItem
	Clear()
}

// StockResult is the outcome of a server-side stock validation call.
type StockResult struct {
	Valid   bool
	Message Message
}

type StockValidator interface {
	ValidateStock(ctx context.Context, items []pricing.CartItem) (StockResult, error)
}

// CouponResult is the outcome of a coupon validation call. Valid=false with
// a nil error from the validator means the server explicitly rejected the
// code; a non-nil error means the call itself failed.
type CouponResult struct {
	Valid    bool
	Coupon   *pricing.Coupon
	Discount float64
	Error    Message
}

type CouponValidator interface {
	ValidateCoupon(ctx context.Context, code string, orderAmount float64) (CouponResult, error)
}

// ProofUpload is the stored location of an uploaded payment proof. Exactly
// one of URL or Data is set depending on the server's storage mode.
type ProofUpload struct {
	URL         string
	Data        string // base64
	ContentType string
}

type ProofUploader interface {
	UploadProof(ctx context.Context, filename, contentType string, data []byte) (ProofUpload, error)
}

// OrderReceipt is the server acknowledgement of a created order.
type OrderReceipt struct {
	OrderID     string
	OrderNumber string
}

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderReceipt, error)
}
