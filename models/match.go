package models

import "time"

const (
	MatchPending    = "pending"
	MatchAccepted   = "accepted"
	MatchRejected   = "rejected"
	MatchExpired    = "expired"
	MatchWithdrawn  = "withdrawn"
	MatchSuperseded = "superseded"
)

// Match is the offer of one case to one lawyer.
type Match struct {
	ID            string     `bson:"id" json:"id"`
	CaseID        string     `bson:"caseId" json:"caseId"`
	LawyerID      string     `bson:"lawyerId" json:"lawyerId"`
	Status        string     `bson:"status" json:"status"`
	Score         float64    `bson:"score" json:"score"`
	DistanceKm    float64    `bson:"distanceKm" json:"distanceKm"`
	Round         int        `bson:"round" json:"round"`
	CountedAsLead bool       `bson:"countedAsLead" json:"countedAsLead"`
	RejectReason  string     `bson:"rejectReason,omitempty" json:"rejectReason,omitempty"`
	OfferedAt     time.Time  `bson:"offeredAt" json:"offeredAt"`
	ExpiresAt     time.Time  `bson:"expiresAt" json:"expiresAt"`
	RespondedAt   *time.Time `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// IsActive reports whether the match occupies one of the case's slots.
func (m *Match) IsActive() bool {
	return m.Status == MatchPending || m.Status == MatchAccepted
}

// MatchView is a match enriched with its case for the lawyer inbox.
type MatchView struct {
	Match Match `json:"match"`
	Case  *Case `json:"case,omitempty"`
}
