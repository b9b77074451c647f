package caseRepo

import (
	"context"
	"fmt"
	"time"

	"lexconnect/database/repository"
	"lexconnect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoCaseRepo) guarded(ctx context.Context, filter, update bson.M) (bool, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

func (r *MongoCaseRepo) ReserveSlot(ctx context.Context, id string, max int) (bool, error) {
	ok, err := r.guarded(ctx,
		bson.M{"id": id, "status": models.CaseOpen, "activeMatches": bson.M{"$lt": max}},
		bson.M{"$inc": bson.M{"activeMatches": 1}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to reserve match slot on case %s: %w", id, err)
	}
	return ok, nil
}

func (r *MongoCaseRepo) ReleaseSlots(ctx context.Context, id string, n int) error {
	if n <= 0 {
		return nil
	}
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	// $max clamps at zero in case a release races a cancellation.
	update := bson.A{
		bson.M{"$set": bson.M{
			"activeMatches": bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$activeMatches", n}}}},
			"updatedAt":     time.Now().UTC(),
		}},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("failed to release match slots on case %s: %w", id, err)
	}
	return nil
}

func (r *MongoCaseRepo) Assign(ctx context.Context, id, lawyerID string, now time.Time) (bool, error) {
	ok, err := r.guarded(ctx,
		bson.M{"id": id, "status": models.CaseOpen},
		bson.M{"$set": bson.M{
			"status":           models.CaseAssigned,
			"assignedLawyerId": lawyerID,
			"assignedAt":       now,
			"updatedAt":        now,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to assign case %s: %w", id, err)
	}
	return ok, nil
}

func (r *MongoCaseRepo) Unassign(ctx context.Context, id, lawyerID string) (bool, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	update := bson.A{
		bson.M{"$set": bson.M{
			"status":           models.CaseOpen,
			"assignedLawyerId": "",
			"activeMatches":    bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$activeMatches", 1}}}},
			"updatedAt":        time.Now().UTC(),
		}},
		bson.M{"$unset": "assignedAt"},
	}
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.CaseAssigned, "assignedLawyerId": lawyerID},
		update,
	)
	if err != nil {
		return false, fmt.Errorf("failed to unassign case %s: %w", id, err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *MongoCaseRepo) BeginRedistribution(ctx context.Context, id string, max int) (bool, error) {
	ok, err := r.guarded(ctx,
		bson.M{"id": id, "status": models.CaseOpen, "redistributionCount": bson.M{"$lt": max}},
		bson.M{"$inc": bson.M{"redistributionCount": 1}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to start redistribution of case %s: %w", id, err)
	}
	return ok, nil
}

func (r *MongoCaseRepo) MarkUnmatched(ctx context.Context, id string) (bool, error) {
	ok, err := r.guarded(ctx,
		bson.M{"id": id, "status": models.CaseOpen, "activeMatches": bson.M{"$lte": 0}},
		bson.M{"$set": bson.M{"status": models.CaseUnmatched, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark case %s unmatched: %w", id, err)
	}
	return ok, nil
}

func (r *MongoCaseRepo) Transition(ctx context.Context, id string, from []string, set bson.M) (bool, error) {
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now().UTC()
	ok, err := r.guarded(ctx,
		bson.M{"id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition case %s: %w", id, err)
	}
	return ok, nil
}

func (r *MongoCaseRepo) FindStalled(ctx context.Context, maxRedistributions int, idleSince time.Time, limit int64) ([]models.Case, error) {
	filter := bson.M{
		"status":              models.CaseOpen,
		"activeMatches":       bson.M{"$lte": 0},
		"redistributionCount": bson.M{"$lt": maxRedistributions},
		"updatedAt":           bson.M{"$lte": idleSince},
	}
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}}).SetLimit(limit)
	return r.find(ctx, filter, opts)
}
