package models

import "time"

const (
	CaseOpen      = "open"
	CaseAssigned  = "assigned"
	CaseClosed    = "closed"
	CaseCancelled = "cancelled"
	CaseUnmatched = "unmatched"
)

const (
	UrgencyLow    = "low"
	UrgencyNormal = "normal"
	UrgencyHigh   = "high"
)

// Categories is the closed set of legal areas a case can be filed under.
var Categories = []string{
	"family",
	"employment",
	"housing",
	"criminal",
	"immigration",
	"consumer",
	"business",
	"inheritance",
	"personal_injury",
	"other",
}

// IsValidCategory reports whether c is one of Categories.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// IsValidUrgency reports whether u is a known urgency level.
func IsValidUrgency(u string) bool {
	return u == UrgencyLow || u == UrgencyNormal || u == UrgencyHigh
}

type Attachment struct {
	ID         string    `bson:"id" json:"id"`
	FileName   string    `bson:"fileName" json:"fileName"`
	StorageKey string    `bson:"storageKey" json:"storageKey"`
	URL        string    `bson:"url" json:"url"`
	Size       int64     `bson:"size" json:"size"`
	UploadedBy string    `bson:"uploadedBy" json:"uploadedBy"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// Case is a citizen's request for legal help.
type Case struct {
	ID                  string       `bson:"id" json:"id"`
	CitizenID           string       `bson:"citizenId" json:"citizenId"`
	Title               string       `bson:"title" json:"title"`
	Description         string       `bson:"description" json:"description"`
	Category            string       `bson:"category" json:"category"`
	Urgency             string       `bson:"urgency" json:"urgency"`
	City                string       `bson:"city" json:"city"`
	Address             string       `bson:"address,omitempty" json:"address,omitempty"`
	LocationGeo         *GeoPoint    `bson:"locationGeo,omitempty" json:"locationGeo,omitempty"`
	Status              string       `bson:"status" json:"status"`
	AssignedLawyerID    string       `bson:"assignedLawyerId,omitempty" json:"assignedLawyerId,omitempty"`
	ActiveMatches       int          `bson:"activeMatches" json:"activeMatches"`
	RedistributionCount int          `bson:"redistributionCount" json:"redistributionCount"`
	Attachments         []Attachment `bson:"attachments,omitempty" json:"attachments,omitempty"`
	PrequalSessionID    string       `bson:"prequalSessionId,omitempty" json:"prequalSessionId,omitempty"`
	CreatedAt           time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time    `bson:"updatedAt" json:"updatedAt"`
	AssignedAt          *time.Time   `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	ClosedAt            *time.Time   `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
}

// HasLocation reports whether the case carries usable coordinates.
func (c *Case) HasLocation() bool {
	return c.LocationGeo != nil && c.LocationGeo.Valid()
}

// CaseRequest is the payload for filing a case.
type CaseRequest struct {
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description" binding:"required"`
	Category         string   `json:"category"`
	Urgency          string   `json:"urgency"`
	City             string   `json:"city"`
	Address          string   `json:"address"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	PrequalSessionID string   `json:"prequalSessionId"`
}
