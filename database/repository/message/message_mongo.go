package messageRepo

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

type MongoMessageRepo struct {
	coll *mongo.Collection
}

// NewMongoMessageRepo creates a MessageRepository on the "messages" collection.
func NewMongoMessageRepo(db *mongo.Database) MessageRepository {
	repo := &MongoMessageRepo{coll: db.Collection("messages")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("messages: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoMessageRepo) Create(ctx context.Context, m *models.Message) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		return repository.Translate(err, "failed to store message on case %s", m.CaseID)
	}
	return nil
}

func (r *MongoMessageRepo) ListSince(ctx context.Context, caseID string, cur Cursor, limit int64) ([]models.Message, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	filter := bson.M{"caseId": caseID}
	switch {
	case !cur.Since.IsZero() && cur.AfterID != "":
		filter["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$gt": cur.Since}},
			bson.M{"createdAt": cur.Since, "id": bson.M{"$gt": cur.AfterID}},
		}
	case !cur.Since.IsZero():
		filter["createdAt"] = bson.M{"$gt": cur.Since}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "id", Value: 1}}).
		SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for case %s: %w", caseID, err)
	}
	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

func unreadFilter(caseID, readerID string) bson.M {
	return bson.M{
		"caseId":   caseID,
		"senderId": bson.M{"$ne": readerID},
		"readAt":   bson.M{"$exists": false},
	}
}

func (r *MongoMessageRepo) MarkRead(ctx context.Context, caseID, readerID string, now time.Time) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	result, err := r.coll.UpdateMany(ctx, unreadFilter(caseID, readerID), bson.M{"$set": bson.M{"readAt": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read on case %s: %w", caseID, err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoMessageRepo) CountUnread(ctx context.Context, caseID, readerID string) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, unreadFilter(caseID, readerID))
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages on case %s: %w", caseID, err)
	}
	return n, nil
}

func (r *MongoMessageRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "caseId", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "id", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
