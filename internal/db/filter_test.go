package db

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFilterBuilderEq(t *testing.T) {
	filter := NewFilter().Eq("role", "doctor").Eq("is_verified", true).Build()
	require.Equal(t, bson.M{"role": "doctor", "is_verified": true}, filter)
}

func TestFilterBuilderIn(t *testing.T) {
	ids := []primitive.ObjectID{primitive.NewObjectID()}
	filter := NewFilter().In("_id", ids).Build()
	require.Equal(t, bson.M{"_id": bson.M{"$in": ids}}, filter)
}

func TestFilterBuilderObjectID(t *testing.T) {
	id := primitive.NewObjectID()
	filter := NewFilter().ObjectID("conversation_id", id.Hex()).Build()
	require.Equal(t, bson.M{"conversation_id": id}, filter)
}

func TestFilterBuilderInvalidObjectIDMatchesNothing(t *testing.T) {
	// A bad hex id must not degrade into an unconstrained filter.
	filter := NewFilter().ObjectID("conversation_id", "not-a-hex-id").Build()
	require.Equal(t, bson.M{"conversation_id": primitive.NilObjectID}, filter)
}
