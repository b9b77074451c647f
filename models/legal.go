package models

// LegalSection is a published policy document. Audience is a role or
// "all".
type LegalSection struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	Audience string `json:"audience"`
	Version  string `json:"version"`
	Updated  string `json:"updated"`
}

const AudienceAll = "all"

// PlatformStats is the admin dashboard snapshot.
type PlatformStats struct {
	Citizens        int64            `json:"citizens"`
	Lawyers         int64            `json:"lawyers"`
	LawyersPending  int64            `json:"lawyersPendingVerification"`
	LawyersVerified int64            `json:"lawyersVerified"`
	CasesByStatus   map[string]int64 `json:"casesByStatus"`
	MatchesByStatus map[string]int64 `json:"matchesByStatus"`
	AcceptanceRate  float64          `json:"acceptanceRate"`
}
