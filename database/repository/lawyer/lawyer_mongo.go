package lawyerRepo

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

// MongoLawyerRepo implements LawyerRepository using MongoDB.
type MongoLawyerRepo struct {
	coll *mongo.Collection
}

// NewMongoLawyerRepo creates a LawyerRepository on the "lawyers" collection.
func NewMongoLawyerRepo(db *mongo.Database) LawyerRepository {
	repo := &MongoLawyerRepo{coll: db.Collection("lawyers")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("lawyers: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoLawyerRepo) Create(ctx context.Context, lawyer *models.Lawyer) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	now := time.Now().UTC()
	lawyer.Profile.Email = strings.ToLower(strings.TrimSpace(lawyer.Profile.Email))
	lawyer.CreatedAt = now
	lawyer.UpdatedAt = now
	if lawyer.Leads.CycleStart.IsZero() {
		lawyer.Leads.CycleStart = now
	}
	if lawyer.Leads.Anchor.IsZero() {
		lawyer.Leads.Anchor = lawyer.Leads.CycleStart
	}
	if _, err := r.coll.InsertOne(ctx, lawyer); err != nil {
		return repository.Translate(err, "failed to create lawyer")
	}
	return nil
}

func (r *MongoLawyerRepo) findOne(ctx context.Context, filter bson.M, what string) (*models.Lawyer, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	var l models.Lawyer
	if err := r.coll.FindOne(ctx, filter).Decode(&l); err != nil {
		return nil, repository.Translate(err, "failed to fetch lawyer by %s", what)
	}
	return &l, nil
}

func (r *MongoLawyerRepo) GetByID(ctx context.Context, id string) (*models.Lawyer, error) {
	return r.findOne(ctx, bson.M{"id": id}, "id")
}

func (r *MongoLawyerRepo) GetByEmail(ctx context.Context, email string) (*models.Lawyer, error) {
	return r.findOne(ctx, bson.M{"profile.email": strings.ToLower(strings.TrimSpace(email))}, "email")
}

func (r *MongoLawyerRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Lawyer, error) {
	return r.findOne(ctx, bson.M{"security.tokenHash": tokenHash}, "token")
}

func (r *MongoLawyerRepo) GetByStripeCustomer(ctx context.Context, customerID string) (*models.Lawyer, error) {
	return r.findOne(ctx, bson.M{"plan.stripeCustomerId": customerID}, "stripe customer")
}

func (r *MongoLawyerRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Lawyer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := repository.WithTimeout(ctx, repository.LongTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lawyers: %w", err)
	}
	var lawyers []models.Lawyer
	if err := cursor.All(ctx, &lawyers); err != nil {
		return nil, fmt.Errorf("failed to decode lawyers: %w", err)
	}
	return lawyers, nil
}

func (r *MongoLawyerRepo) UpdateSetDocument(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	set["updatedAt"] = time.Now().UTC()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return repository.Translate(err, "failed to update lawyer %s", id)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("lawyer %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoLawyerRepo) AddVerificationDocument(ctx context.Context, id string, doc models.VerificationDocument) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"verification.documents": doc},
		"$set": bson.M{
			"verification.status": models.VerificationPending,
			"updatedAt":           time.Now().UTC(),
		},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add verification document for lawyer %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("lawyer %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func listFilter(f LawyerFilter) bson.M {
	filter := bson.M{}
	if f.Verification != "" {
		filter["verification.status"] = f.Verification
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func (r *MongoLawyerRepo) List(ctx context.Context, f LawyerFilter, limit, skip int64) ([]models.Lawyer, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.LongTimeout)
	defer cancel()

	page := repository.Page{Limit: limit, Skip: skip}.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(page.Limit).
		SetSkip(page.Skip).
		SetProjection(bson.M{"security": 0})

	cursor, err := r.coll.Find(ctx, listFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list lawyers: %w", err)
	}
	var lawyers []models.Lawyer
	if err := cursor.All(ctx, &lawyers); err != nil {
		return nil, fmt.Errorf("failed to decode lawyers: %w", err)
	}
	return lawyers, nil
}

func (r *MongoLawyerRepo) Count(ctx context.Context, f LawyerFilter) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, listFilter(f))
	if err != nil {
		return 0, fmt.Errorf("failed to count lawyers: %w", err)
	}
	return n, nil
}

func (r *MongoLawyerRepo) IncrementStat(ctx context.Context, id, stat string) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$inc": bson.M{"stats." + stat: 1}})
	if err != nil {
		return fmt.Errorf("failed to increment %s for lawyer %s: %w", stat, id, err)
	}
	return nil
}

// AddRating uses a pipeline update so the average is computed from the
// stored values in one write.
func (r *MongoLawyerRepo) AddRating(ctx context.Context, id string, rating float64) error {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"profile.rating": bson.M{"$divide": bson.A{
				bson.M{"$add": bson.A{
					bson.M{"$multiply": bson.A{bson.M{"$ifNull": bson.A{"$profile.rating", 0}}, bson.M{"$ifNull": bson.A{"$profile.ratingCount", 0}}}},
					rating,
				}},
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$profile.ratingCount", 0}}, 1}},
			}},
			"profile.ratingCount": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$profile.ratingCount", 0}}, 1}},
		}}},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to rate lawyer %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("lawyer %s: %w", id, repository.ErrNotFound)
	}
	return nil
}
