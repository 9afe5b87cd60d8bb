package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
	"storefront/internal/pricing"
)

type couponValidateRequest struct {
	Code        string  `json:"code" binding:"required"`
	OrderAmount float64 `json:"orderAmount"`
}

type couponPayload struct {
	Code          string   `json:"code"`
	DiscountType  string   `json:"discountType"`
	DiscountValue float64  `json:"discountValue"`
	MaxDiscount   *float64 `json:"maxDiscount,omitempty"`
}

// ValidateCoupon serves POST /api/checkout/validate-coupon. An unusable
// coupon is reported with valid=false and a localized reason; only transport
// and database failures produce error statuses.
func ValidateCoupon(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/checkout/validate-coupon"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req couponValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		code := strings.ToUpper(strings.TrimSpace(req.Code))
		if code == "" {
			rejectCoupon(c, "Coupon code is required", "كود الخصم مطلوب")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var coupon models.Coupon
		err := db.Collection("coupons").FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
		if err == mongo.ErrNoDocuments {
			rejectCoupon(c, "Coupon code is not valid", "كود الخصم غير صالح")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if reasonEn, reasonAr, ok := couponUsable(coupon, req.OrderAmount, time.Now()); !ok {
			rejectCoupon(c, reasonEn, reasonAr)
			return
		}

		discount := pricing.CouponDiscount(req.OrderAmount, &pricing.Coupon{
			Code:          coupon.Code,
			DiscountType:  coupon.DiscountType,
			DiscountValue: coupon.DiscountValue,
			MaxDiscount:   coupon.MaxDiscount,
		})

		c.JSON(http.StatusOK, gin.H{
			"valid": true,
			"coupon": couponPayload{
				Code:          coupon.Code,
				DiscountType:  coupon.DiscountType,
				DiscountValue: coupon.DiscountValue,
				MaxDiscount:   coupon.MaxDiscount,
			},
			"discount": discount,
		})
	}
}

func rejectCoupon(c *gin.Context, reasonEn, reasonAr string) {
	c.JSON(http.StatusOK, gin.H{
		"valid":   false,
		"error":   reasonEn,
		"errorAr": reasonAr,
	})
}

func couponUsable(coupon models.Coupon, orderAmount float64, now time.Time) (string, string, bool) {
	switch {
	case !coupon.IsActive:
		return "Coupon code is not valid", "كود الخصم غير صالح", false
	case coupon.Expired(now):
		return "Coupon has expired", "انتهت صلاحية كود الخصم", false
	case coupon.Exhausted():
		return "Coupon usage limit reached", "تم استنفاد كود الخصم", false
	case coupon.MinOrderAmount > 0 && orderAmount < coupon.MinOrderAmount:
		return "Order total is below the coupon minimum", "إجمالي الطلب أقل من الحد الأدنى للكود", false
	}
	return "", "", true
}
