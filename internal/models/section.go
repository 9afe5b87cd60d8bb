package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Section describes one homepage product section. Products are selected
// either by category slug or by an explicit product id list.
type Section struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title      string               `bson:"title" json:"title"`
	TitleAr    string               `bson:"titleAr" json:"titleAr"`
	Category   string               `bson:"category,omitempty" json:"category,omitempty"`
	ProductIDs []primitive.ObjectID `bson:"productIds,omitempty" json:"productIds,omitempty"`
	Limit      int                  `bson:"limit" json:"limit"`
	Position   int                  `bson:"position" json:"position"`
	IsEnabled  bool                 `bson:"isEnabled" json:"isEnabled"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
}
