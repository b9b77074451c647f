package matchRepo

import (
	"context"
	"fmt"

	"lexconnect/database/repository"
	"lexconnect/models"
	"lexconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoMatchRepo implements MatchRepository using MongoDB.
type MongoMatchRepo struct {
	coll *mongo.Collection
}

// NewMongoMatchRepo creates a MatchRepository on the "matches" collection.
func NewMongoMatchRepo(db *mongo.Database) MatchRepository {
	repo := &MongoMatchRepo{coll: db.Collection("matches")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("matches: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoMatchRepo) Create(ctx context.Context, m *models.Match) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		return repository.Translate(err, "failed to create match for case %s lawyer %s", m.CaseID, m.LawyerID)
	}
	return nil
}

func (r *MongoMatchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	var m models.Match
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&m); err != nil {
		return nil, repository.Translate(err, "failed to fetch match %s", id)
	}
	return &m, nil
}

func (r *MongoMatchRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Match, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.LongTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	var matches []models.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}
	return matches, nil
}

func (r *MongoMatchRepo) ListByCase(ctx context.Context, caseID string) ([]models.Match, error) {
	return r.find(ctx, bson.M{"caseId": caseID}, options.Find().SetSort(bson.D{{Key: "offeredAt", Value: 1}}))
}

func (r *MongoMatchRepo) ListByLawyer(ctx context.Context, lawyerID, status string, limit, skip int64) ([]models.Match, error) {
	filter := bson.M{"lawyerId": lawyerID}
	if status != "" {
		filter["status"] = status
	}
	page := repository.Page{Limit: limit, Skip: skip}.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "offeredAt", Value: -1}}).
		SetLimit(page.Limit).
		SetSkip(page.Skip)
	return r.find(ctx, filter, opts)
}

func (r *MongoMatchRepo) OfferedLawyerIDs(ctx context.Context, caseID string) ([]string, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	values, err := r.coll.Distinct(ctx, "lawyerId", bson.M{"caseId": caseID})
	if err != nil {
		return nil, fmt.Errorf("failed to list offered lawyers for case %s: %w", caseID, err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (r *MongoMatchRepo) HasPendingFor(ctx context.Context, caseID, lawyerID string) (bool, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{
		"caseId":   caseID,
		"lawyerId": lawyerID,
		"status":   models.MatchPending,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check pending match: %w", err)
	}
	return n > 0, nil
}

func (r *MongoMatchRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.LongTimeout)
	defer cancel()

	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate match counts: %w", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode match counts: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
