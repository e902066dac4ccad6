package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Score struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"display_name" json:"displayName"`
	Score       int                `bson:"score" json:"score"`
}
