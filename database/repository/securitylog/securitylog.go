package securityLogRepo

import (
	"context"
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

// Filter selects security log entries. Empty fields match everything.
type Filter struct {
	ActorID string
	Event   string
	Since   time.Time
}

// SecurityLogRepository is append-only.
type SecurityLogRepository interface {
	Append(ctx context.Context, entry *models.SecurityLog) error
	List(ctx context.Context, f Filter, limit, skip int64) ([]models.SecurityLog, error)
}

type MongoSecurityLogRepo struct {
	coll *mongo.Collection
}

func NewMongoSecurityLogRepo(db *mongo.Database) SecurityLogRepository {
	repo := &MongoSecurityLogRepo{coll: db.Collection("security_logs")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("security_logs: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoSecurityLogRepo) Append(ctx context.Context, entry *models.SecurityLog) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append security log: %w", err)
	}
	return nil
}

func (r *MongoSecurityLogRepo) List(ctx context.Context, f Filter, limit, skip int64) ([]models.SecurityLog, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.LongTimeout)
	defer cancel()

	filter := bson.M{}
	if f.ActorID != "" {
		filter["actorId"] = f.ActorID
	}
	if f.Event != "" {
		filter["event"] = f.Event
	}
	if !f.Since.IsZero() {
		filter["createdAt"] = bson.M{"$gte": f.Since}
	}
	page := repository.Page{Limit: limit, Skip: skip}.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(page.Limit).
		SetSkip(page.Skip)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list security logs: %w", err)
	}
	var out []models.SecurityLog
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode security logs: %w", err)
	}
	return out, nil
}

func (r *MongoSecurityLogRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "actorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "event", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
