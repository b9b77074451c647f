package lawyerRepo

import (
	"context"
	"time"

	"lexconnect/models"

	"go.mongodb.org/mongo-driver/bson"
)

// EligibilityCriteria narrows the candidate pool for a case. Quota is
// checked by the caller since it depends on each lawyer's plan.
type EligibilityCriteria struct {
	Category      string
	Location      *models.GeoPoint
	City          string
	MaxDistanceKm float64
	ExcludeIDs    []string
	Limit         int64
}

// LawyerFilter is used by moderation listings.
type LawyerFilter struct {
	Verification string
	Status       string
}

// LawyerRepository defines methods for lawyer data access.
type LawyerRepository interface {
	Create(ctx context.Context, lawyer *models.Lawyer) error
	GetByID(ctx context.Context, id string) (*models.Lawyer, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Lawyer, error)
	GetByEmail(ctx context.Context, email string) (*models.Lawyer, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Lawyer, error)
	GetByStripeCustomer(ctx context.Context, customerID string) (*models.Lawyer, error)
	// UpdateSetDocument applies a $set patch.
	UpdateSetDocument(ctx context.Context, id string, set bson.M) error
	AddVerificationDocument(ctx context.Context, id string, doc models.VerificationDocument) error
	List(ctx context.Context, filter LawyerFilter, limit, skip int64) ([]models.Lawyer, error)
	Count(ctx context.Context, filter LawyerFilter) (int64, error)

	// FindEligible returns candidates that satisfy every eligibility rule
	// except lead quota.
	FindEligible(ctx context.Context, criteria EligibilityCriteria) ([]models.Lawyer, error)
	// ReserveLead consumes one lead for the lawyer if the plan quota allows,
	// rolling the monthly cycle forward when it has elapsed. quota < 0 means
	// unlimited. It reports whether a lead was reserved.
	ReserveLead(ctx context.Context, id string, quota int, now time.Time) (bool, error)
	// ReleaseLead refunds a lead reserved in the current cycle when the
	// offer it paid for could not be created.
	ReleaseLead(ctx context.Context, id string, now time.Time) error
	// ResetExpiredCycles rolls forward every lead cycle that ended before now.
	ResetExpiredCycles(ctx context.Context, now time.Time) (int64, error)
	// IncrementStat bumps one of the stats.* counters.
	IncrementStat(ctx context.Context, id, stat string) error
	// AddRating folds a new rating into the running average.
	AddRating(ctx context.Context, id string, rating float64) error
}
