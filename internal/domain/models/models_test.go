package models

import "go.mongodb.org/mongo-driver/bson/primitive"

func newID() primitive.ObjectID {
	return primitive.NewObjectID()
}
