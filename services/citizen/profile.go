package citizen

import (
	"context"
	"fmt"
	"strings"

	"lexconnect/models"
	"lexconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func (s *DefaultCitizenService) GetProfile(ctx context.Context, citizenID string) (*models.Citizen, error) {
	return s.Repo.GetByID(ctx, citizenID)
}

func (s *DefaultCitizenService) UpdateProfile(ctx context.Context, citizenID string, upd models.CitizenUpdate) (*models.Citizen, error) {
	set := bson.M{"updatedAt": s.now()}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, fmt.Errorf("full name cannot be empty: %w", utils.ErrInvalid)
		}
		set["fullName"] = name
	}
	if upd.PhoneNumber != nil {
		set["phoneNumber"] = strings.TrimSpace(*upd.PhoneNumber)
	}
	if upd.City != nil {
		city := strings.TrimSpace(*upd.City)
		set["city"] = city
		if geo := s.locate(ctx, city); geo != nil {
			set["locationGeo"] = geo
		}
	}
	if upd.FCMToken != nil {
		set["fcmToken"] = *upd.FCMToken
	}
	if err := s.Repo.UpdateSetDocument(ctx, citizenID, set); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, citizenID)
}

// locate resolves a city to coordinates when a geocoder is configured.
// Failures leave the citizen without coordinates.
func (s *DefaultCitizenService) locate(ctx context.Context, city string) *models.GeoPoint {
	if s.Geocoder == nil || city == "" {
		return nil
	}
	res, err := s.Geocoder.Geocode(ctx, city)
	if err != nil {
		utils.GetLogger().Warn("citizen: could not geocode city", zap.String("city", city), zap.Error(err))
		return nil
	}
	geo := res.Location
	return &geo
}
