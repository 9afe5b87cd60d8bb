package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnalyticsEvent is a fire-and-forget client event. Payload is stored as-is.
type AnalyticsEvent struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Event     string                 `bson:"event" json:"event"`
	Page      string                 `bson:"page,omitempty" json:"page,omitempty"`
	Language  string                 `bson:"language,omitempty" json:"language,omitempty"`
	Payload   map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
}
