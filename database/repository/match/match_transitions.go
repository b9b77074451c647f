package matchRepo

import (
	"context"
	"fmt"
	"time"

	"lexconnect/database/repository"
	"lexconnect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoMatchRepo) guarded(ctx context.Context, filter, update bson.M) (bool, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

func (r *MongoMatchRepo) Respond(ctx context.Context, id, lawyerID, status, reason string, now time.Time) (bool, error) {
	set := bson.M{"status": status, "respondedAt": now}
	if reason != "" {
		set["rejectReason"] = reason
	}
	ok, err := r.guarded(ctx,
		bson.M{
			"id":        id,
			"lawyerId":  lawyerID,
			"status":    models.MatchPending,
			"expiresAt": bson.M{"$gt": now},
		},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("failed to record response on match %s: %w", id, err)
	}
	return ok, nil
}

func (r *MongoMatchRepo) Transition(ctx context.Context, id, from, to string, now time.Time) (bool, error) {
	ok, err := r.guarded(ctx,
		bson.M{"id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "respondedAt": now}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to move match %s to %s: %w", id, to, err)
	}
	return ok, nil
}

// ClosePending updates one document at a time so the result lists exactly
// the matches this call changed, not ones a concurrent call also touched.
func (r *MongoMatchRepo) ClosePending(ctx context.Context, caseID, exceptID, status string, now time.Time) ([]models.Match, error) {
	filter := bson.M{"caseId": caseID, "status": models.MatchPending}
	if exceptID != "" {
		filter["id"] = bson.M{"$ne": exceptID}
	}
	pending, err := r.find(ctx, filter, nil)
	if err != nil {
		return nil, err
	}

	var closed []models.Match
	for _, m := range pending {
		ok, err := r.Transition(ctx, m.ID, models.MatchPending, status, now)
		if err != nil {
			return closed, err
		}
		if ok {
			m.Status = status
			m.RespondedAt = &now
			closed = append(closed, m)
		}
	}
	return closed, nil
}

func (r *MongoMatchRepo) FindExpired(ctx context.Context, now time.Time, limit int64) ([]models.Match, error) {
	if limit <= 0 {
		limit = 500
	}
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}}).SetLimit(limit)
	return r.find(ctx, bson.M{
		"status":    models.MatchPending,
		"expiresAt": bson.M{"$lte": now},
	}, opts)
}
