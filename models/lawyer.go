package models

import "time"

const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

type LawyerProfile struct {
	FullName        string    `bson:"fullName" json:"fullName"`
	Email           string    `bson:"email" json:"email"`
	PhoneNumber     string    `bson:"phoneNumber" json:"phoneNumber,omitempty"`
	BarNumber       string    `bson:"barNumber" json:"barNumber"`
	Specialties     []string  `bson:"specialties" json:"specialties"`
	Languages       []string  `bson:"languages,omitempty" json:"languages,omitempty"`
	City            string    `bson:"city" json:"city"`
	Address         string    `bson:"address,omitempty" json:"address,omitempty"`
	LocationGeo     *GeoPoint `bson:"locationGeo,omitempty" json:"locationGeo,omitempty"`
	YearsExperience int       `bson:"yearsExperience" json:"yearsExperience"`
	Bio             string    `bson:"bio,omitempty" json:"bio,omitempty"`
	ProfileImage    string    `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Rating          float64   `bson:"rating" json:"rating"`
	RatingCount     int       `bson:"ratingCount" json:"ratingCount"`
}

type LawyerSecurity struct {
	PasswordHash string `bson:"passwordHash" json:"-"`
	TokenHash    string `bson:"tokenHash" json:"-"`
	FCMToken     string `bson:"fcmToken,omitempty" json:"-"`
}

// VerificationDocument is a bar certificate or ID uploaded for moderation.
type VerificationDocument struct {
	Kind       string    `bson:"kind" json:"kind"`
	StorageKey string    `bson:"storageKey" json:"storageKey"`
	FileName   string    `bson:"fileName" json:"fileName"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

type LawyerVerification struct {
	Status     string                 `bson:"status" json:"status"`
	Documents  []VerificationDocument `bson:"documents,omitempty" json:"documents,omitempty"`
	ReviewedBy string                 `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time             `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	Note       string                 `bson:"note,omitempty" json:"note,omitempty"`
}

// LawyerPlan is the lawyer's current subscription state.
type LawyerPlan struct {
	PlanID               string     `bson:"planId" json:"planId"`
	Status               string     `bson:"status" json:"status"`
	StripeCustomerID     string     `bson:"stripeCustomerId,omitempty" json:"-"`
	StripeSubscriptionID string     `bson:"stripeSubscriptionId,omitempty" json:"-"`
	CurrentPeriodEnd     *time.Time `bson:"currentPeriodEnd,omitempty" json:"currentPeriodEnd,omitempty"`
}

// LeadCounter tracks leads consumed in the rolling monthly cycle that
// started at CycleStart. Anchor is the first cycle start; every later
// boundary is derived from it so the anchor day survives short months.
type LeadCounter struct {
	Count      int       `bson:"count" json:"count"`
	CycleStart time.Time `bson:"cycleStart" json:"cycleStart"`
	Anchor     time.Time `bson:"anchor,omitempty" json:"-"`
}

type LawyerStats struct {
	Offered  int `bson:"offered" json:"offered"`
	Accepted int `bson:"accepted" json:"accepted"`
	Rejected int `bson:"rejected" json:"rejected"`
	Expired  int `bson:"expired" json:"expired"`
}

// AcceptRatio is the share of answered offers that were accepted.
func (s LawyerStats) AcceptRatio() float64 {
	answered := s.Accepted + s.Rejected + s.Expired
	if answered == 0 {
		return 0.5
	}
	return float64(s.Accepted) / float64(answered)
}

type Lawyer struct {
	ID             string             `bson:"id" json:"id"`
	Profile        LawyerProfile      `bson:"profile" json:"profile"`
	Security       LawyerSecurity     `bson:"security" json:"-"`
	Verification   LawyerVerification `bson:"verification" json:"verification"`
	Status         string             `bson:"status" json:"status"`
	AcceptingCases bool               `bson:"acceptingCases" json:"acceptingCases"`
	Plan           LawyerPlan         `bson:"plan" json:"plan"`
	Leads          LeadCounter        `bson:"leads" json:"leads"`
	Stats          LawyerStats        `bson:"stats" json:"stats"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasSpecialty reports whether the lawyer practises in category.
func (l *Lawyer) HasSpecialty(category string) bool {
	for _, s := range l.Profile.Specialties {
		if s == category {
			return true
		}
	}
	return false
}

// LawyerPublic is what citizens see about a lawyer.
type LawyerPublic struct {
	ID              string   `json:"id"`
	FullName        string   `json:"fullName"`
	Specialties     []string `json:"specialties"`
	Languages       []string `json:"languages,omitempty"`
	City            string   `json:"city"`
	YearsExperience int      `json:"yearsExperience"`
	Bio             string   `json:"bio,omitempty"`
	ProfileImage    string   `json:"profileImage,omitempty"`
	Rating          float64  `json:"rating"`
	PhoneNumber     string   `json:"phoneNumber,omitempty"`
	Email           string   `json:"email,omitempty"`
}

// Public strips private fields. Contact details are only included once
// the lawyer has accepted the viewer's case.
func (l *Lawyer) Public(withContact bool) LawyerPublic {
	p := LawyerPublic{
		ID:              l.ID,
		FullName:        l.Profile.FullName,
		Specialties:     l.Profile.Specialties,
		Languages:       l.Profile.Languages,
		City:            l.Profile.City,
		YearsExperience: l.Profile.YearsExperience,
		Bio:             l.Profile.Bio,
		ProfileImage:    l.Profile.ProfileImage,
		Rating:          l.Profile.Rating,
	}
	if withContact {
		p.PhoneNumber = l.Profile.PhoneNumber
		p.Email = l.Profile.Email
	}
	return p
}

// LawyerRegistration is the sign-up payload.
type LawyerRegistration struct {
	FullName        string   `json:"fullName" binding:"required"`
	Email           string   `json:"email" binding:"required,email"`
	Password        string   `json:"password" binding:"required"`
	PhoneNumber     string   `json:"phoneNumber"`
	BarNumber       string   `json:"barNumber" binding:"required"`
	Specialties     []string `json:"specialties" binding:"required,min=1"`
	Languages       []string `json:"languages"`
	City            string   `json:"city" binding:"required"`
	Address         string   `json:"address"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	YearsExperience int      `json:"yearsExperience"`
	Bio             string   `json:"bio"`
}

// LawyerUpdate carries the mutable profile fields.
type LawyerUpdate struct {
	PhoneNumber     *string   `json:"phoneNumber"`
	Specialties     *[]string `json:"specialties"`
	Languages       *[]string `json:"languages"`
	City            *string   `json:"city"`
	Address         *string   `json:"address"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	YearsExperience *int      `json:"yearsExperience"`
	Bio             *string   `json:"bio"`
	FCMToken        *string   `json:"fcmToken"`
}
