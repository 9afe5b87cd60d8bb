package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
	"storefront/internal/pricing"
)

type createOrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type createOrderRequest struct {
	Items                 []createOrderItemRequest `json:"items" binding:"required"`
	FirstName             string                   `json:"firstName"`
	LastName              string                   `json:"lastName"`
	Email                 string                   `json:"email"`
	Phone                 string                   `json:"phone"`
	Address               string                   `json:"address"`
	City                  string                   `json:"city"`
	PostalCode            string                   `json:"postalCode"`
	PaymentMethod         string                   `json:"paymentMethod"`
	ShippingPaymentMethod string                   `json:"shippingPaymentMethod"`
	PaymentProofURL       string                   `json:"paymentProofUrl"`
	ShippingPrice         float64                  `json:"shippingPrice"`
	PrepaidAmount         float64                  `json:"prepaidAmount"`
	CODAmount             float64                  `json:"codAmount"`
	Notes                 string                   `json:"notes"`
	CouponCode            string                   `json:"couponCode"`
	CouponDiscount        float64                  `json:"couponDiscount"`
	CSRFToken             string                   `json:"csrfToken"`
}

// CreateOrder serves POST /api/checkout/create-order. Stock checks, unit
// prices, the coupon discount and every total are recomputed server-side
// inside one Mongo transaction; the client's numbers are never trusted.
func CreateOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/checkout/create-order"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		if !csrfTokenValid(c, req.CSRFToken) {
			respondLocalized(c, http.StatusForbidden, route,
				"Session expired, please refresh the page", "انتهت الجلسة، يرجى تحديث الصفحة")
			return
		}

		order, err := buildOrderFromRequest(req)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		shippingPrice := resolveShippingPrice(ctx, db, req.ShippingPrice)

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var orderID primitive.ObjectID
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			calculatedItems := make([]models.OrderItem, 0, len(order.Items))
			calculatedTotal := 0.0

			for i, item := range order.Items {
				var raw bson.M
				err := db.Collection("products").FindOne(
					sessCtx,
					bson.M{
						"_id":       item.ProductID,
						"isDeleted": bson.M{"$ne": true},
					},
				).Decode(&raw)
				if err == mongo.ErrNoDocuments {
					return nil, productNotFoundError{ProductID: item.ProductID}
				}
				if err != nil {
					return nil, err
				}

				product, err := normalizeProductDocument(raw)
				if err != nil {
					return nil, err
				}

				size := req.Items[i].Size
				color := req.Items[i].Color
				available, _, _ := availableStock(product, size, color)
				if available < item.Quantity {
					return nil, outOfStockError{
						ProductID: item.ProductID,
						Available: available,
						Requested: item.Quantity,
					}
				}

				if err := decrementStock(sessCtx, db, product, item.ProductID, size, color, item.Quantity); err != nil {
					return nil, err
				}

				unitPrice := effectiveProductPrice(product.Price, product.SaleEnabled, product.SalePrice)
				calculatedItems = append(calculatedItems, models.OrderItem{
					ProductID: item.ProductID,
					Name:      product.Name,
					NameAr:    product.NameAr,
					Price:     unitPrice,
					Quantity:  item.Quantity,
					Size:      size,
					Color:     color,
				})
				calculatedTotal += unitPrice * float64(item.Quantity)
			}

			discount, err := applyCouponInTransaction(sessCtx, db, order.CouponCode, calculatedTotal)
			if err != nil {
				return nil, err
			}

			totals := computeOrderTotals(calculatedTotal, discount, shippingPrice, order.PaymentMethod)

			order.Items = calculatedItems
			order.TotalPrice = calculatedTotal
			order.CouponDiscount = discount
			order.ShippingPrice = shippingPrice
			order.PrepaidAmount = totals.PrepaidTotal
			order.CODAmount = totals.CODAmount

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				orderID = id
			}
			return nil, nil
		})
		if err != nil {
			var stockErr outOfStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "Insufficient stock",
					"errorAr":   "المخزون غير كافٍ",
					"code":      "OUT_OF_STOCK",
					"productId": stockErr.ProductID.Hex(),
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			var notFoundErr productNotFoundError
			if errors.As(err, &notFoundErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "Product not found",
					"errorAr":   "المنتج غير موجود",
					"productId": notFoundErr.ProductID.Hex(),
				})
				return
			}
			var couponErr couponRejectedError
			if errors.As(err, &couponErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   couponErr.Reason,
					"errorAr": couponErr.ReasonAr,
				})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if !orderID.IsZero() {
			order.ID = orderID
		}

		log.Printf("[%s] order %s created", route, order.OrderNumber)
		c.JSON(http.StatusCreated, gin.H{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"message":     "order created",
		})
	}
}

func buildOrderFromRequest(req createOrderRequest) (models.Order, error) {
	if len(req.Items) == 0 {
		return models.Order{}, errors.New("at least one item is required")
	}

	switch req.PaymentMethod {
	case models.PaymentMethodInstaPay, models.PaymentMethodVodafone:
	case models.PaymentMethodCOD:
		if req.ShippingPaymentMethod != models.PaymentMethodInstaPay &&
			req.ShippingPaymentMethod != models.PaymentMethodVodafone {
			return models.Order{}, errors.New("shippingPaymentMethod is required for cash on delivery")
		}
	default:
		return models.Order{}, errors.New("invalid payment method")
	}

	for _, field := range []string{req.FirstName, req.LastName, req.Email, req.Phone, req.Address, req.City} {
		if strings.TrimSpace(field) == "" {
			return models.Order{}, errors.New("missing required customer fields")
		}
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return models.Order{}, errors.New("invalid productId")
		}
		if item.Quantity <= 0 {
			return models.Order{}, errors.New("quantity must be greater than zero")
		}
		items = append(items, models.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}

	order := models.Order{
		OrderNumber: newOrderNumber(),
		Items:       items,
		Customer: models.OrderCustomer{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     strings.TrimSpace(req.Email),
			Phone:     strings.TrimSpace(req.Phone),
		},
		Address: models.OrderAddress{
			Address:    strings.TrimSpace(req.Address),
			City:       strings.TrimSpace(req.City),
			PostalCode: strings.TrimSpace(req.PostalCode),
		},
		PaymentMethod:   req.PaymentMethod,
		PaymentProofURL: strings.TrimSpace(req.PaymentProofURL),
		CouponCode:      strings.ToUpper(strings.TrimSpace(req.CouponCode)),
		Notes:           strings.TrimSpace(req.Notes),
		Status:          "pending",
		CreatedAt:       time.Now(),
	}

	if req.PaymentMethod == models.PaymentMethodCOD {
		order.ShippingPaymentMethod = req.ShippingPaymentMethod
	}

	return order, nil
}

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

// decrementStock applies a conditional decrement against the variant
// combination when one matches, otherwise against the product-level count.
// A zero MatchedCount means a concurrent order won the remaining stock.
func decrementStock(ctx context.Context, db *mongo.Database, product models.Product, productID primitive.ObjectID, size, color string, quantity int) error {
	if _, ok := product.VariantStock(size, color); ok {
		filter := bson.M{
			"_id":       productID,
			"isDeleted": bson.M{"$ne": true},
			"variants": bson.M{"$elemMatch": bson.M{
				"size":  size,
				"color": color,
				"stock": bson.M{"$gte": quantity},
			}},
		}
		update := bson.M{"$inc": bson.M{"variants.$.stock": -quantity}}

		res, err := db.Collection("products").UpdateOne(ctx, filter, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return outOfStockError{ProductID: productID, Requested: quantity}
		}
		return nil
	}

	filter := bson.M{
		"_id":       productID,
		"isDeleted": bson.M{"$ne": true},
		"stock":     bson.M{"$gte": quantity},
	}
	update := bson.M{"$inc": bson.M{"stock": -quantity}}

	res, err := db.Collection("products").UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return outOfStockError{ProductID: productID, Available: product.Stock, Requested: quantity}
	}
	return nil
}

// applyCouponInTransaction revalidates the code against the recomputed
// total, increments its usage, and returns the discount. An empty code
// grants nothing.
func applyCouponInTransaction(ctx context.Context, db *mongo.Database, code string, total float64) (float64, error) {
	if code == "" {
		return 0, nil
	}

	var coupon models.Coupon
	err := db.Collection("coupons").FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if err == mongo.ErrNoDocuments {
		return 0, couponRejectedError{
			Reason:   "Coupon code is not valid",
			ReasonAr: "كود الخصم غير صالح",
		}
	}
	if err != nil {
		return 0, err
	}

	if reasonEn, reasonAr, ok := couponUsable(coupon, total, time.Now()); !ok {
		return 0, couponRejectedError{Reason: reasonEn, ReasonAr: reasonAr}
	}

	discount := pricing.CouponDiscount(total, &pricing.Coupon{
		Code:          coupon.Code,
		DiscountType:  coupon.DiscountType,
		DiscountValue: coupon.DiscountValue,
		MaxDiscount:   coupon.MaxDiscount,
	})

	if _, err := db.Collection("coupons").UpdateOne(
		ctx,
		bson.M{"_id": coupon.ID},
		bson.M{"$inc": bson.M{"usedCount": 1}},
	); err != nil {
		return 0, err
	}

	return discount, nil
}

func computeOrderTotals(total, discount, shippingPrice float64, paymentMethod string) pricing.Totals {
	subtotal := total - discount
	if subtotal < 0 {
		subtotal = 0
	}

	totals := pricing.Totals{
		TotalPrice:            total,
		CouponDiscount:        discount,
		SubtotalAfterDiscount: subtotal,
		ShippingPrice:         shippingPrice,
	}
	if paymentMethod == models.PaymentMethodCOD {
		totals.PrepaidTotal = shippingPrice
		totals.CODAmount = subtotal
	} else {
		totals.PrepaidTotal = subtotal + shippingPrice
	}
	return totals
}

func resolveShippingPrice(ctx context.Context, db *mongo.Database, fallback float64) float64 {
	var settings models.Settings
	err := db.Collection("settings").FindOne(ctx, bson.M{}).Decode(&settings)
	if err != nil {
		return fallback
	}
	return settings.Store.ShippingPrice
}

type outOfStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e outOfStockError) Error() string {
	return "product out of stock"
}

type productNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e productNotFoundError) Error() string {
	return "product not found"
}

type couponRejectedError struct {
	Reason   string
	ReasonAr string
}

func (e couponRejectedError) Error() string {
	return e.Reason
}
