package citizenRepo

import (
	"context"

	"lexconnect/models"

	"go.mongodb.org/mongo-driver/bson"
)

// CitizenRepository defines methods for citizen data access.
type CitizenRepository interface {
	// Create inserts a new citizen.
	Create(ctx context.Context, citizen *models.Citizen) error
	// GetByID retrieves a citizen by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Citizen, error)
	// GetByEmail retrieves a citizen by email address.
	GetByEmail(ctx context.Context, email string) (*models.Citizen, error)
	// GetByTokenHash retrieves the citizen owning the given session token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Citizen, error)
	// UpdateSetDocument applies a $set patch.
	UpdateSetDocument(ctx context.Context, id string, set bson.M) error
	// List returns citizens, optionally filtered by status.
	List(ctx context.Context, status string, limit, skip int64) ([]models.Citizen, error)
	// Count returns the number of citizens with the given status ("" for all).
	Count(ctx context.Context, status string) (int64, error)
}
