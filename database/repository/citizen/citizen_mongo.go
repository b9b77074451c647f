package citizenRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lexconnect/database/repository"
	"lexconnect/models"
	"lexconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoCitizenRepo implements CitizenRepository using MongoDB.
type MongoCitizenRepo struct {
	coll *mongo.Collection
}

// NewMongoCitizenRepo creates a CitizenRepository on the "citizens" collection.
func NewMongoCitizenRepo(db *mongo.Database) CitizenRepository {
	repo := &MongoCitizenRepo{coll: db.Collection("citizens")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("citizens: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoCitizenRepo) Create(ctx context.Context, citizen *models.Citizen) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	now := time.Now().UTC()
	citizen.Email = strings.ToLower(strings.TrimSpace(citizen.Email))
	citizen.CreatedAt = now
	citizen.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, citizen); err != nil {
		return repository.Translate(err, "failed to create citizen")
	}
	return nil
}

func (r *MongoCitizenRepo) findOne(ctx context.Context, filter bson.M, what string) (*models.Citizen, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	var c models.Citizen
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, repository.Translate(err, "failed to fetch citizen by %s", what)
	}
	return &c, nil
}

func (r *MongoCitizenRepo) GetByID(ctx context.Context, id string) (*models.Citizen, error) {
	return r.findOne(ctx, bson.M{"id": id}, "id")
}

func (r *MongoCitizenRepo) GetByEmail(ctx context.Context, email string) (*models.Citizen, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}, "email")
}

func (r *MongoCitizenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Citizen, error) {
	return r.findOne(ctx, bson.M{"tokenHash": tokenHash}, "token")
}

func (r *MongoCitizenRepo) UpdateSetDocument(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	set["updatedAt"] = time.Now().UTC()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return repository.Translate(err, "failed to update citizen %s", id)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("citizen %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoCitizenRepo) List(ctx context.Context, status string, limit, skip int64) ([]models.Citizen, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.LongTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	page := repository.Page{Limit: limit, Skip: skip}.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(page.Limit).
		SetSkip(page.Skip).
		SetProjection(bson.M{"passwordHash": 0, "tokenHash": 0})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list citizens: %w", err)
	}
	var citizens []models.Citizen
	if err := cursor.All(ctx, &citizens); err != nil {
		return nil, fmt.Errorf("failed to decode citizens: %w", err)
	}
	return citizens, nil
}

func (r *MongoCitizenRepo) Count(ctx context.Context, status string) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count citizens: %w", err)
	}
	return n, nil
}
