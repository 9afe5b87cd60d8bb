package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DiscountTypePercentage = "PERCENTAGE"
	DiscountTypeFixed      = "FIXED"
)

// Coupon is a redeemable discount code. MaxDiscount caps percentage coupons;
// nil means uncapped. UsageLimit of 0 means unlimited.
type Coupon struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code           string             `bson:"code" json:"code"`
	DiscountType   string             `bson:"discountType" json:"discountType"`
	DiscountValue  float64            `bson:"discountValue" json:"discountValue"`
	MaxDiscount    *float64           `bson:"maxDiscount,omitempty" json:"maxDiscount,omitempty"`
	MinOrderAmount float64            `bson:"minOrderAmount" json:"minOrderAmount"`
	UsageLimit     int                `bson:"usageLimit" json:"usageLimit"`
	UsedCount      int                `bson:"usedCount" json:"usedCount"`
	ExpiresAt      *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// Expired reports whether the coupon has an expiry in the past.
func (c Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Exhausted reports whether the usage limit has been reached.
func (c Coupon) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit
}
