package models

import "time"

// PrequalTurn is one exchange of the anonymous pre-qualification chat.
type PrequalTurn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// PrequalSession is kept in Redis while the visitor has no account.
type PrequalSession struct {
	ID         string        `json:"id"`
	Turns      []PrequalTurn `json:"turns"`
	Category   string        `json:"category"`
	Urgency    string        `json:"urgency"`
	Summary    string        `json:"summary"`
	City       string        `json:"city,omitempty"`
	Ready      bool          `json:"ready"`
	ClaimedBy  string        `json:"claimedBy,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	LastActive time.Time     `json:"lastActive"`
}

// PrequalReply is returned to the visitor after each message.
type PrequalReply struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	Category  string `json:"category"`
	Urgency   string `json:"urgency"`
	Ready     bool   `json:"ready"`
}

type PrequalRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message" binding:"required"`
}
