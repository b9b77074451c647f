package caseRepo

import (
	"context"
	"time"

	"lexconnect/models"

	"go.mongodb.org/mongo-driver/bson"
)

// CaseRepository defines methods for case data access. Every state change
// is a single guarded update so concurrent requests cannot both win.
type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id string) (*models.Case, error)
	ListByCitizen(ctx context.Context, citizenID, status string) ([]models.Case, error)
	ListByAssignedLawyer(ctx context.Context, lawyerID, status string) ([]models.Case, error)
	ListByStatus(ctx context.Context, status string, limit, skip int64) ([]models.Case, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// ReserveSlot increments activeMatches when the case is open and below max.
	ReserveSlot(ctx context.Context, id string, max int) (bool, error)
	// ReleaseSlots decrements activeMatches by n, never below zero.
	ReleaseSlots(ctx context.Context, id string, n int) error
	// Assign moves an open case to assigned for lawyerID.
	Assign(ctx context.Context, id, lawyerID string, now time.Time) (bool, error)
	// Unassign returns an assigned case to open and frees its slot.
	Unassign(ctx context.Context, id, lawyerID string) (bool, error)
	// BeginRedistribution bumps redistributionCount while it is below max.
	BeginRedistribution(ctx context.Context, id string, max int) (bool, error)
	// MarkUnmatched moves an open case with no active match to unmatched.
	MarkUnmatched(ctx context.Context, id string) (bool, error)
	// Transition applies set when the case is in one of from.
	Transition(ctx context.Context, id string, from []string, set bson.M) (bool, error)
	// FindStalled returns open cases with no active match and budget left.
	FindStalled(ctx context.Context, maxRedistributions int, idleSince time.Time, limit int64) ([]models.Case, error)

	AddAttachment(ctx context.Context, id string, a models.Attachment) error
	AppendDescription(ctx context.Context, id, text string) error
}
