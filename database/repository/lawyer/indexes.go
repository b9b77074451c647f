package lawyerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for frequently used fields in queries.
func (r *MongoLawyerRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Compound geo + eligibility flags used by FindEligible.
	geoCompoundIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "profile.locationGeo", Value: "2dsphere"},
			{Key: "profile.specialties", Value: 1},
			{Key: "verification.status", Value: 1},
			{Key: "acceptingCases", Value: 1},
		},
	}
	stripeIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "plan.stripeCustomerId", Value: 1}},
		Options: options.Index().SetPartialFilterExpression(bson.M{"plan.stripeCustomerId": bson.M{"$gt": ""}}),
	}

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "profile.email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "security.tokenHash", Value: 1}}},
		{Keys: bson.D{{Key: "profile.city", Value: 1}, {Key: "profile.specialties", Value: 1}}},
		{Keys: bson.D{{Key: "leads.cycleStart", Value: 1}}},
		{Keys: bson.D{{Key: "verification.status", Value: 1}, {Key: "createdAt", Value: -1}}},
		geoCompoundIdx,
		stripeIdx,
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
