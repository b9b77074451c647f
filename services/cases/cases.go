package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lexconnect/database/repository"
	"lexconnect/models"
	"lexconnect/services/notification"
	"lexconnect/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 10000
)

func (s *DefaultCaseService) Create(ctx context.Context, citizenID string, req models.CaseRequest) (*models.Case, error) {
	logger := utils.GetLogger()
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		return nil, fmt.Errorf("title and description are required: %w", utils.ErrInvalid)
	}
	if len(req.Title) > maxTitleLen || len(req.Description) > maxDescriptionLen {
		return nil, fmt.Errorf("title or description too long: %w", utils.ErrInvalid)
	}

	if req.PrequalSessionID != "" {
		if s.Prequal == nil {
			return nil, fmt.Errorf("pre-qualification is not available: %w", utils.ErrUnavailable)
		}
		session, err := s.Prequal.Claim(ctx, req.PrequalSessionID, citizenID)
		if err != nil {
			return nil, err
		}
		if req.Category == "" {
			req.Category = session.Category
		}
		if req.Urgency == "" {
			req.Urgency = session.Urgency
		}
		if req.City == "" {
			req.City = session.City
		}
	}

	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if !models.IsValidCategory(req.Category) {
		return nil, fmt.Errorf("unknown category %q: %w", req.Category, utils.ErrInvalid)
	}
	if req.Urgency == "" {
		req.Urgency = models.UrgencyNormal
	}
	if !models.IsValidUrgency(req.Urgency) {
		return nil, fmt.Errorf("unknown urgency %q: %w", req.Urgency, utils.ErrInvalid)
	}

	now := s.now()
	c := &models.Case{
		ID:               uuid.New().String(),
		CitizenID:        citizenID,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Urgency:          req.Urgency,
		City:             strings.TrimSpace(req.City),
		Address:          strings.TrimSpace(req.Address),
		Status:           models.CaseOpen,
		PrequalSessionID: req.PrequalSessionID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.locate(ctx, c, req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	if err := s.Cases.Create(ctx, c); err != nil {
		logger.Error("Failed to create case", zap.Error(err))
		return nil, fmt.Errorf("failed to create case, please try again")
	}
	s.dispatch(ctx, c.ID)
	return c, nil
}

// locate fills LocationGeo from explicit coordinates or by geocoding the
// address. Geocoding failures fall back to city matching.
func (s *DefaultCaseService) locate(ctx context.Context, c *models.Case, lat, lng *float64) error {
	if lat != nil && lng != nil {
		p := models.NewGeoPoint(*lat, *lng)
		if !p.Valid() {
			return fmt.Errorf("coordinates out of range: %w", utils.ErrInvalid)
		}
		c.LocationGeo = &p
	} else if s.Geocoder != nil && (c.Address != "" || c.City != "") {
		query := strings.TrimSpace(c.Address + " " + c.City)
		res, err := s.Geocoder.Geocode(ctx, query)
		if err != nil {
			utils.GetLogger().Warn("case: geocoding failed, falling back to city", zap.String("caseID", c.ID), zap.Error(err))
		} else {
			geo := res.Location
			c.LocationGeo = &geo
			if c.City == "" {
				c.City = res.City
			}
		}
	}
	if c.LocationGeo == nil && c.City == "" {
		return ErrNoLocation
	}
	return nil
}

// dispatch hands the case to the queue, or distributes inline when no
// queue is wired or enqueueing fails.
func (s *DefaultCaseService) dispatch(ctx context.Context, caseID string) {
	logger := utils.GetLogger()
	if s.Queue != nil {
		err := s.Queue.EnqueueDistribute(ctx, caseID)
		if err == nil {
			return
		}
		logger.Warn("case: enqueue failed, distributing inline", zap.String("caseID", caseID), zap.Error(err))
	}
	n, err := s.Engine.Distribute(ctx, caseID)
	if err != nil {
		logger.Error("case: initial distribution failed", zap.String("caseID", caseID), zap.Error(err))
		return
	}
	logger.Info("case distributed", zap.String("caseID", caseID), zap.Int("offers", n))
}

func (s *DefaultCaseService) ListForCitizen(ctx context.Context, citizenID, status string) ([]models.Case, error) {
	return s.Cases.ListByCitizen(ctx, citizenID, status)
}

func (s *DefaultCaseService) ListForLawyer(ctx context.Context, lawyerID, status string) ([]models.Case, error) {
	return s.Cases.ListByAssignedLawyer(ctx, lawyerID, status)
}

func (s *DefaultCaseService) load(ctx context.Context, caseID string) (*models.Case, error) {
	c, err := s.Cases.GetByID(ctx, caseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCaseNotFound
	}
	return c, err
}

// Get applies the visibility rules: the owner sees everything, the
// assigned lawyer sees the case and the citizen's contact, and a lawyer
// holding a pending offer sees the case without address or attachments.
func (s *DefaultCaseService) Get(ctx context.Context, viewer Viewer, caseID string) (*CaseDetail, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}

	switch viewer.Role {
	case utils.RoleCitizen:
		if c.CitizenID != viewer.ID {
			return nil, ErrNoAccess
		}
		detail := &CaseDetail{Case: c}
		if detail.Matches, err = s.Matches.ListByCase(ctx, c.ID); err != nil {
			return nil, err
		}
		if c.AssignedLawyerID != "" {
			if l, err := s.Lawyers.GetByID(ctx, c.AssignedLawyerID); err == nil {
				pub := l.Public(true)
				detail.Lawyer = &pub
			}
		}
		return detail, nil

	case utils.RoleLawyer:
		if c.AssignedLawyerID == viewer.ID && c.Status != models.CaseOpen {
			detail := &CaseDetail{Case: c}
			if citizen, err := s.Citizens.GetByID(ctx, c.CitizenID); err == nil {
				detail.Citizen = &CitizenContact{FullName: citizen.FullName, Email: citizen.Email, PhoneNumber: citizen.PhoneNumber}
			}
			return detail, nil
		}
		pending, err := s.Matches.HasPendingFor(ctx, c.ID, viewer.ID)
		if err != nil {
			return nil, err
		}
		if !pending {
			return nil, ErrNoAccess
		}
		redacted := *c
		redacted.Address = ""
		redacted.Attachments = nil
		return &CaseDetail{Case: &redacted}, nil

	case utils.RoleAdmin:
		detail := &CaseDetail{Case: c}
		if detail.Matches, err = s.Matches.ListByCase(ctx, c.ID); err != nil {
			return nil, err
		}
		return detail, nil
	}
	return nil, ErrNoAccess
}

// Cancel withdraws an open or unmatched case. Pending offers are withdrawn
// and their lawyers notified.
func (s *DefaultCaseService) Cancel(ctx context.Context, citizenID, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.CitizenID != citizenID {
		return nil, ErrNoAccess
	}
	now := s.now()
	ok, err := s.Cases.Transition(ctx, caseID, []string{models.CaseOpen, models.CaseUnmatched},
		bson.M{"status": models.CaseCancelled, "closedAt": now, "updatedAt": now})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrWrongState
	}
	if err := s.Engine.ReleaseCase(ctx, caseID); err != nil {
		utils.GetLogger().Error("case: failed to release offers on cancel", zap.String("caseID", caseID), zap.Error(err))
	}
	return s.load(ctx, caseID)
}

// Close finishes an assigned case, optionally rating the lawyer (1-5).
func (s *DefaultCaseService) Close(ctx context.Context, citizenID, caseID string, rating *float64) (*models.Case, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, ErrBadRating
	}
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.CitizenID != citizenID {
		return nil, ErrNoAccess
	}
	now := s.now()
	ok, err := s.Cases.Transition(ctx, caseID, []string{models.CaseAssigned},
		bson.M{"status": models.CaseClosed, "closedAt": now, "updatedAt": now})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrWrongState
	}
	if err := s.Engine.ReleaseCase(ctx, caseID); err != nil {
		utils.GetLogger().Error("case: failed to release offers on close", zap.String("caseID", caseID), zap.Error(err))
	}
	if rating != nil {
		if err := s.Lawyers.AddRating(ctx, c.AssignedLawyerID, *rating); err != nil {
			utils.GetLogger().Error("case: failed to record rating", zap.String("lawyerID", c.AssignedLawyerID), zap.Error(err))
		}
	}
	if s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, notification.Message{
			RecipientID:   c.AssignedLawyerID,
			RecipientRole: utils.RoleLawyer,
			Type:          models.NotifyCaseClosed,
			Title:         "Case closed",
			Body:          fmt.Sprintf("The citizen closed \"%s\".", c.Title),
			Data:          map[string]string{"caseId": c.ID},
		}); err != nil {
			utils.GetLogger().Warn("case: close notification failed", zap.Error(err))
		}
	}
	return s.load(ctx, caseID)
}
