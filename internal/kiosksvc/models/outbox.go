package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OutboxEntry is a captured mutating request awaiting replay against the
// upstream server. The ObjectID doubles as the due-time cursor: an entry is
// only eligible for delivery once its embedded creation time has passed.
type OutboxEntry struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	URL    string             `bson:"url" json:"url"`
	Method string             `bson:"method" json:"method"`
	Data   map[string]string  `bson:"data" json:"data"`
}
