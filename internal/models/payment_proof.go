package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentProof stores an uploaded transfer screenshot when the upload storage
// mode is "db". Data is the raw image, served back base64-encoded.
type PaymentProof struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Data        []byte             `bson:"data" json:"-"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
