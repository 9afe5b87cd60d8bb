package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductSlug string             `bson:"productSlug" json:"productSlug"`
	Name        string             `bson:"name" json:"name"`
	Rating      int                `bson:"rating" json:"rating"`
	Comment     string             `bson:"comment,omitempty" json:"comment,omitempty"`
	IsApproved  bool               `bson:"isApproved" json:"isApproved"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
