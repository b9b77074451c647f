package billingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lexconnect/database/repository"
	"lexconnect/models"
	"lexconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EventRepository records processed Stripe webhook events.
type EventRepository interface {
	// MarkProcessed stores the event id. It returns false when the id was
	// already recorded.
	MarkProcessed(ctx context.Context, eventID, eventType string, now time.Time) (bool, error)
	// Forget removes a record so a failed event can be retried by Stripe.
	Forget(ctx context.Context, eventID string) error
}

type MongoEventRepo struct {
	coll *mongo.Collection
}

func NewMongoEventRepo(db *mongo.Database) EventRepository {
	repo := &MongoEventRepo{coll: db.Collection("stripe_events")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("stripe_events: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoEventRepo) MarkProcessed(ctx context.Context, eventID, eventType string, now time.Time) (bool, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, models.StripeEvent{ID: eventID, Type: eventType, ProcessedAt: now})
	if err != nil {
		if errors.Is(repository.Translate(err, "stripe event"), repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("failed to record stripe event %s: %w", eventID, err)
	}
	return true, nil
}

func (r *MongoEventRepo) Forget(ctx context.Context, eventID string) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"id": eventID}); err != nil {
		return fmt.Errorf("failed to forget stripe event %s: %w", eventID, err)
	}
	return nil
}

func (r *MongoEventRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "processedAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32((60 * 24 * time.Hour).Seconds())),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
