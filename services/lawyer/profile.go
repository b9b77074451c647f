package lawyer

import (
	"context"
	"fmt"
	"strings"

	"lexconnect/models"
	"lexconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func (s *DefaultLawyerService) GetProfile(ctx context.Context, lawyerID string) (*models.Lawyer, error) {
	return s.Repo.GetByID(ctx, lawyerID)
}

func (s *DefaultLawyerService) UpdateProfile(ctx context.Context, lawyerID string, upd models.LawyerUpdate) (*models.Lawyer, error) {
	current, err := s.Repo.GetByID(ctx, lawyerID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": s.now()}
	if upd.PhoneNumber != nil {
		set["profile.phoneNumber"] = strings.TrimSpace(*upd.PhoneNumber)
	}
	if upd.Specialties != nil {
		specialties, err := cleanSpecialties(*upd.Specialties)
		if err != nil {
			return nil, err
		}
		set["profile.specialties"] = specialties
	}
	if upd.Languages != nil {
		set["profile.languages"] = *upd.Languages
	}
	if upd.YearsExperience != nil {
		set["profile.yearsExperience"] = max(*upd.YearsExperience, 0)
	}
	if upd.Bio != nil {
		set["profile.bio"] = strings.TrimSpace(*upd.Bio)
	}
	if upd.FCMToken != nil {
		set["security.fcmToken"] = *upd.FCMToken
	}

	// A location change re-resolves coordinates.
	if upd.City != nil || upd.Address != nil || upd.Latitude != nil || upd.Longitude != nil {
		city, address := current.Profile.City, current.Profile.Address
		if upd.City != nil {
			city = strings.TrimSpace(*upd.City)
			set["profile.city"] = city
		}
		if upd.Address != nil {
			address = strings.TrimSpace(*upd.Address)
			set["profile.address"] = address
		}
		if geo := s.locate(ctx, upd.Latitude, upd.Longitude, address, city); geo != nil {
			set["profile.locationGeo"] = geo
		}
	}

	if err := s.Repo.UpdateSetDocument(ctx, lawyerID, set); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, lawyerID)
}

func (s *DefaultLawyerService) SetAcceptingCases(ctx context.Context, lawyerID string, accepting bool) (*models.Lawyer, error) {
	if err := s.Repo.UpdateSetDocument(ctx, lawyerID, bson.M{"acceptingCases": accepting, "updatedAt": s.now()}); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, lawyerID)
}

// locate prefers explicit coordinates, then geocodes the address or city.
func (s *DefaultLawyerService) locate(ctx context.Context, lat, lng *float64, address, city string) *models.GeoPoint {
	if lat != nil && lng != nil {
		p := models.NewGeoPoint(*lat, *lng)
		if p.Valid() {
			return &p
		}
	}
	if s.Geocoder == nil {
		return nil
	}
	query := strings.TrimSpace(strings.Join([]string{address, city}, " "))
	if query == "" {
		return nil
	}
	res, err := s.Geocoder.Geocode(ctx, query)
	if err != nil {
		utils.GetLogger().Warn("lawyer: could not geocode office", zap.String("query", query), zap.Error(err))
		return nil
	}
	geo := res.Location
	return &geo
}

func cleanSpecialties(in []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if !models.IsValidCategory(s) {
			return nil, fmt.Errorf("unknown specialty %q: %w", s, utils.ErrInvalid)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one specialty is required: %w", utils.ErrInvalid)
	}
	return out, nil
}
