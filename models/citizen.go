package models

import "time"

const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
)

// Citizen is a person seeking legal help.
type Citizen struct {
	ID           string    `bson:"id" json:"id"`
	FullName     string    `bson:"fullName" json:"fullName"`
	Email        string    `bson:"email" json:"email"`
	PhoneNumber  string    `bson:"phoneNumber" json:"phoneNumber,omitempty"`
	City         string    `bson:"city" json:"city,omitempty"`
	LocationGeo  *GeoPoint `bson:"locationGeo,omitempty" json:"locationGeo,omitempty"`
	Status       string    `bson:"status" json:"status"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	TokenHash    string    `bson:"tokenHash" json:"-"`
	FCMToken     string    `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CitizenRegistration is the sign-up payload.
type CitizenRegistration struct {
	FullName    string `json:"fullName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
	City        string `json:"city"`
}

// CitizenUpdate carries the mutable profile fields.
type CitizenUpdate struct {
	FullName    *string `json:"fullName"`
	PhoneNumber *string `json:"phoneNumber"`
	City        *string `json:"city"`
	FCMToken    *string `json:"fcmToken"`
}
