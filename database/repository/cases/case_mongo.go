package caseRepo

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

// MongoCaseRepo implements CaseRepository using MongoDB.
type MongoCaseRepo struct {
	coll *mongo.Collection
}

// NewMongoCaseRepo creates a CaseRepository on the "cases" collection.
func NewMongoCaseRepo(db *mongo.Database) CaseRepository {
	repo := &MongoCaseRepo{coll: db.Collection("cases")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("cases: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoCaseRepo) Create(ctx context.Context, c *models.Case) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return repository.Translate(err, "failed to create case")
	}
	return nil
}

func (r *MongoCaseRepo) GetByID(ctx context.Context, id string) (*models.Case, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	var c models.Case
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&c); err != nil {
		return nil, repository.Translate(err, "failed to fetch case %s", id)
	}
	return &c, nil
}

func (r *MongoCaseRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Case, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.LongTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	var cases []models.Case
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, fmt.Errorf("failed to decode cases: %w", err)
	}
	return cases, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func (r *MongoCaseRepo) ListByCitizen(ctx context.Context, citizenID, status string) ([]models.Case, error) {
	filter := bson.M{"citizenId": citizenID}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, newestFirst().SetLimit(200))
}

func (r *MongoCaseRepo) ListByAssignedLawyer(ctx context.Context, lawyerID, status string) ([]models.Case, error) {
	filter := bson.M{"assignedLawyerId": lawyerID}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, newestFirst().SetLimit(200))
}

func (r *MongoCaseRepo) ListByStatus(ctx context.Context, status string, limit, skip int64) ([]models.Case, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	page := repository.Page{Limit: limit, Skip: skip}.Normalize()
	return r.find(ctx, filter, newestFirst().SetLimit(page.Limit).SetSkip(page.Skip))
}

func (r *MongoCaseRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.LongTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate case counts: %w", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode case counts: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *MongoCaseRepo) AddAttachment(ctx context.Context, id string, a models.Attachment) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"attachments": a},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to attach file to case %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("case %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// AppendDescription concatenates text onto the stored description in one
// pipeline update.
func (r *MongoCaseRepo) AppendDescription(ctx context.Context, id, text string) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"description": bson.M{"$concat": bson.A{"$description", "\n\n", bson.M{"$literal": text}}},
			"updatedAt":   time.Now().UTC(),
		}}},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to append description to case %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("case %s: %w", id, repository.ErrNotFound)
	}
	return nil
}
