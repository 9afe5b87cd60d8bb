package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentMethodInstaPay = "instapay"
	PaymentMethodVodafone = "vodafone"
	PaymentMethodCOD      = "cod"
)

// OrderItem represents a single product entry within an order. Price is the
// effective unit price recomputed server-side at order time.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	NameAr    string             `bson:"nameAr" json:"nameAr"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
}

// OrderCustomer captures the contact details entered in the checkout form.
type OrderCustomer struct {
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone" json:"phone"`
}

// OrderAddress is the delivery address. PostalCode is optional.
type OrderAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
}

// Order defines the persisted order document.
type Order struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber           string             `bson:"orderNumber" json:"orderNumber"`
	Items                 []OrderItem        `bson:"items" json:"items"`
	Customer              OrderCustomer      `bson:"customer" json:"customer"`
	Address               OrderAddress       `bson:"address" json:"address"`
	PaymentMethod         string             `bson:"paymentMethod" json:"paymentMethod"`
	ShippingPaymentMethod string             `bson:"shippingPaymentMethod,omitempty" json:"shippingPaymentMethod,omitempty"`
	PaymentProofURL       string             `bson:"paymentProofUrl,omitempty" json:"paymentProofUrl,omitempty"`
	TotalPrice            float64            `bson:"totalPrice" json:"totalPrice"`
	ShippingPrice         float64            `bson:"shippingPrice" json:"shippingPrice"`
	PrepaidAmount         float64            `bson:"prepaidAmount" json:"prepaidAmount"`
	CODAmount             float64            `bson:"codAmount" json:"codAmount"`
	CouponCode            string             `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	CouponDiscount        float64            `bson:"couponDiscount" json:"couponDiscount"`
	Notes                 string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status                string             `bson:"status" json:"status"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
}
