package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoreSettings is the public section of the settings document, the part the
// storefront reads before checkout.
type StoreSettings struct {
	StoreName           string  `bson:"storeName" json:"storeName"`
	StoreNameAr         string  `bson:"storeNameAr" json:"storeNameAr"`
	ShippingPrice       float64 `bson:"shippingPrice" json:"shippingPrice"`
	InstaPayNumber      string  `bson:"instaPayNumber" json:"instaPayNumber"`
	InstaPayAccountName string  `bson:"instaPayAccountName" json:"instaPayAccountName"`
	VodafoneNumber      string  `bson:"vodafoneNumber" json:"vodafoneNumber"`
	ContactEmail        string  `bson:"contactEmail,omitempty" json:"contactEmail,omitempty"`
	ContactPhone        string  `bson:"contactPhone,omitempty" json:"contactPhone,omitempty"`
}

// Settings is the single admin-managed settings document. Sections are
// patched independently from the admin console.
type Settings struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Store     StoreSettings          `bson:"store" json:"store"`
	Sections  map[string]interface{} `bson:"sections,omitempty" json:"sections,omitempty"`
	Email     map[string]interface{} `bson:"email,omitempty" json:"email,omitempty"`
	UpdatedAt time.Time              `bson:"updatedAt" json:"updatedAt"`
}
