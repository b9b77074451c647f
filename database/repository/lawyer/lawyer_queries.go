package lawyerRepo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"lexconnect/database/repository"
	"lexconnect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const earthRadiusKm = 6378.1

// maxReserveAttempts bounds the optimistic retry loop in ReserveLead.
const maxReserveAttempts = 4

func eligibilityFilter(c EligibilityCriteria) bson.M {
	filter := bson.M{
		"status":              models.AccountActive,
		"verification.status": models.VerificationVerified,
		"acceptingCases":      true,
		"profile.specialties": c.Category,
	}
	if len(c.ExcludeIDs) > 0 {
		filter["id"] = bson.M{"$nin": c.ExcludeIDs}
	}
	if c.Location != nil && c.Location.Valid() && c.MaxDistanceKm > 0 {
		filter["profile.locationGeo"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{c.Location.Lng(), c.Location.Lat()},
					c.MaxDistanceKm / earthRadiusKm,
				},
			},
		}
	} else if c.City != "" {
		filter["profile.city"] = bson.M{"$regex": "^" + regexp.QuoteMeta(c.City) + "$", "$options": "i"}
	}
	return filter
}

func (r *MongoLawyerRepo) FindEligible(ctx context.Context, c EligibilityCriteria) ([]models.Lawyer, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.LongTimeout)
	defer cancel()

	limit := c.Limit
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "leads.count", Value: 1}}).
		SetProjection(bson.M{"security": 0, "verification.documents": 0})

	cursor, err := r.coll.Find(ctx, eligibilityFilter(c), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible lawyers for %s: %w", c.Category, err)
	}
	var lawyers []models.Lawyer
	if err := cursor.All(ctx, &lawyers); err != nil {
		return nil, fmt.Errorf("failed to decode eligible lawyers: %w", err)
	}
	return lawyers, nil
}

// ReserveLead is an optimistic update guarded on the observed cycle start
// and, for capped plans, on count < quota. A concurrent writer makes the
// guard miss and the loop re-reads.
func (r *MongoLawyerRepo) ReserveLead(ctx context.Context, id string, quota int, now time.Time) (bool, error) {
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		current, err := r.readLeads(ctx, id)
		if err != nil {
			return false, err
		}

		next, rolled := current.Rolled(now)
		filter := bson.M{"id": id, "leads.cycleStart": current.CycleStart}
		var update bson.M

		if rolled {
			if quota == 0 {
				return false, nil
			}
			update = bson.M{"$set": bson.M{"leads.count": 1, "leads.cycleStart": next.CycleStart, "leads.anchor": next.Anchor}}
		} else {
			if quota >= 0 {
				if current.Count >= quota {
					return false, nil
				}
				filter["leads.count"] = bson.M{"$lt": quota}
			}
			update = bson.M{"$inc": bson.M{"leads.count": 1}}
		}

		ok, err := r.guardedUpdate(ctx, filter, update)
		if err != nil {
			return false, fmt.Errorf("failed to reserve lead for lawyer %s: %w", id, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, fmt.Errorf("reserve lead for lawyer %s: %w", id, repository.ErrConflict)
}

// ReleaseLead gives back a lead reserved in the current cycle. Nothing is
// refunded once the cycle has rolled over.
func (r *MongoLawyerRepo) ReleaseLead(ctx context.Context, id string, now time.Time) error {
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		current, err := r.readLeads(ctx, id)
		if err != nil {
			return err
		}
		if _, rolled := current.Rolled(now); rolled || current.Count <= 0 {
			return nil
		}
		ok, err := r.guardedUpdate(ctx,
			bson.M{"id": id, "leads.cycleStart": current.CycleStart, "leads.count": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"leads.count": -1}},
		)
		if err != nil {
			return fmt.Errorf("failed to release lead for lawyer %s: %w", id, err)
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("release lead for lawyer %s: %w", id, repository.ErrConflict)
}

func (r *MongoLawyerRepo) readLeads(ctx context.Context, id string) (models.LeadCounter, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	var doc struct {
		Leads models.LeadCounter `bson:"leads"`
	}
	opts := options.FindOne().SetProjection(bson.M{"leads": 1})
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&doc); err != nil {
		return models.LeadCounter{}, repository.Translate(err, "failed to read leads for lawyer %s", id)
	}
	return doc.Leads, nil
}

func (r *MongoLawyerRepo) guardedUpdate(ctx context.Context, filter, update bson.M) (bool, error) {
	ctx, cancel := repository.WithTimeout(ctx, repository.ShortTimeout)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

func (r *MongoLawyerRepo) ResetExpiredCycles(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	// No cycle is shorter than 28 days.
	filter := bson.M{"leads.cycleStart": bson.M{"$lte": now.AddDate(0, 0, -28)}}
	opts := options.Find().SetProjection(bson.M{"id": 1, "leads": 1})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired lead cycles: %w", err)
	}
	defer cursor.Close(ctx)

	var reset int64
	for cursor.Next(ctx) {
		var doc struct {
			ID    string             `bson:"id"`
			Leads models.LeadCounter `bson:"leads"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return reset, fmt.Errorf("failed to decode lead cycle: %w", err)
		}
		next, rolled := doc.Leads.Rolled(now)
		if !rolled {
			continue
		}
		ok, err := r.guardedUpdate(ctx,
			bson.M{"id": doc.ID, "leads.cycleStart": doc.Leads.CycleStart},
			bson.M{"$set": bson.M{"leads.count": 0, "leads.cycleStart": next.CycleStart, "leads.anchor": next.Anchor}},
		)
		if err != nil {
			return reset, fmt.Errorf("failed to reset lead cycle for lawyer %s: %w", doc.ID, err)
		}
		if ok {
			reset++
		}
	}
	return reset, cursor.Err()
}
